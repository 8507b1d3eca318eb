package display

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/cspace/errors"
)

// OutputEnv selects JSON output when set to "json", for callers that parse
// cspace output.
const OutputEnv = "CSPACE_OUTPUT"

// ShouldOutputJSON determines if a command should output JSON based on flags
// and the CSPACE_OUTPUT environment variable
func ShouldOutputJSON(cmd *cobra.Command) bool {
	// Handle nil command gracefully (e.g., when called from result rendering without command context)
	if cmd == nil {
		return jsonFromEnv()
	}

	// Check if --json flag was explicitly set
	if cmd.Flags().Changed("json") {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}

	// Check global --json flag
	if globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json"); globalFlag {
		return true
	}

	return jsonFromEnv()
}

func jsonFromEnv() bool {
	return strings.EqualFold(os.Getenv(OutputEnv), "json")
}

// OutputJSON marshals and prints JSON using display.MarshalJSON
func OutputJSON(v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}

// Render prints v as JSON when the command asks for it, and otherwise calls
// human.
func Render(cmd *cobra.Command, v interface{}, human func() error) error {
	if ShouldOutputJSON(cmd) {
		return OutputJSON(v)
	}
	return human()
}
