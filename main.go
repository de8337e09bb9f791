package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = os.MkdirAll("tmp", 0o755)
	_ = os.MkdirAll(audioDir, 0o755)
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fpengine",
		Short: "Audio fingerprinting and matching engine",
	}

	root.AddCommand(findCmd(), saveCmd(), serveCobraCmd(), eraseCmd(), statsCmd(), snapshotStatsCmd())
	return root
}

func snapshotStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot-stats <path_to_json_export>",
		Short: "Summarize a JSON tracks export without reimporting it",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			snapshotStats(args[0])
		},
	}
}

func findCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <audio_file>",
		Short: "Match a file against the index",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			find(loadConfig(), args[0])
		},
	}
}

func saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <file_or_dir>",
		Short: "Ingest audio file(s) into the index",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			save(loadConfig(), args[0])
		},
	}
}

func serveCobraCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			if port != "" {
				cfg.Port = port
			}
			runServeCmd(cfg)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "port to listen on (overrides PORT)")
	return cmd
}

func eraseCmd() *cobra.Command {
	var wipeFiles bool

	cmd := &cobra.Command{
		Use:   "erase",
		Short: "Clear the index, optionally also deleting source audio files",
		Run: func(cmd *cobra.Command, args []string) {
			erase(loadConfig(), wipeFiles)
		},
	}
	cmd.Flags().BoolVar(&wipeFiles, "all", false, "also delete audio files under the songs directory")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print index size",
		Run: func(cmd *cobra.Command, args []string) {
			stats(loadConfig())
		},
	}
}
