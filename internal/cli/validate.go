package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"procureiq-quiz-service/internal/domain"
	"procureiq-quiz-service/internal/engine"
)

// NewValidateCmd checks quiz documents without starting the server.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate quiz documents (.json, .yaml)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				quiz, err := validateFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "invalid %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "ok      %s: %s (%d questions)\n", path, quiz.Title, len(quiz.Questions))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents invalid", failed, len(args))
			}
			return nil
		},
	}
}

func validateFile(path string) (*domain.QuizDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return engine.ParseDocument(data, engine.FormatFromPath(path))
}
