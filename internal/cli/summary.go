package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show statistics for a recorded run",
		Run:   runSummary,
	}

	RootCmd.AddCommand(cmd)
}

func runSummary(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sum, err := s.Summarize(getDBPath())
	if err != nil {
		exitErr("summary", err)
	}

	b, _ := json.MarshalIndent(sum, "", "  ")
	fmt.Println(string(b))
}
