package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Show migration intensities for a recorded run",
		Run:   runRoutes,
	}

	RootCmd.AddCommand(cmd)
}

func runRoutes(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	routes, err := s.Routes()
	if err != nil {
		exitErr("routes", err)
	}

	b, _ := json.MarshalIndent(routes, "", "  ")
	fmt.Println(string(b))
}
