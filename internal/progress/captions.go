package progress

// Caption sets rotate while an operation runs. Purely cosmetic; keyed by the
// hint label the command supplies.
var captionSets = map[string][]string{
	"commit": {
		"Checking git repository status...",
		"Analyzing staged files...",
		"Reading git diff changes...",
		"Sending changes to AI for analysis...",
		"AI is crafting commit message...",
		"Formatting commit message...",
		"Preparing commit preview...",
	},
	"review": {
		"Scanning code changes...",
		"Reading modified files...",
		"Analyzing security implications...",
		"Senior engineer AI reviewing code...",
		"Identifying potential issues...",
		"Generating improvement suggestions...",
		"Preparing comprehensive review...",
	},
	"explain": {
		"Parsing code structure...",
		"Analyzing syntax and patterns...",
		"Understanding code logic...",
		"AI expert analyzing implementation...",
		"Breaking down algorithms...",
		"Preparing educational explanation...",
	},
	"analyze": {
		"Reading file contents...",
		"Identifying programming language...",
		"Understanding architecture...",
		"AI expert reviewing code...",
		"Extracting key concepts...",
		"Preparing comprehensive explanation...",
	},
	"docs": {
		"Analyzing project structure...",
		"Identifying programming languages...",
		"Reading important files...",
		"Sending to AI for analysis...",
		"AI is writing documentation...",
		"Formatting documentation...",
		"Saving files...",
	},
	"assistant": {
		"Connecting to AI assistant...",
		"Understanding your request...",
		"Processing with AI model...",
		"Generating helpful response...",
		"Crafting personalized response...",
	},
}

var genericCaptions = []string{
	"Working...",
	"Still working...",
	"Almost there...",
}

func captionsFor(label string) []string {
	if captions, ok := captionSets[label]; ok {
		return captions
	}
	return genericCaptions
}
