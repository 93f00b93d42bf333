package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ytmate",
		Short: "Comment analytics for your own YouTube channel",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(keyCmd())
	root.AddCommand(channelCmd())
	root.AddCommand(videosCmd())
	root.AddCommand(commentsCmd())
	root.AddCommand(topCmd())
	root.AddCommand(latestCmd())
	root.AddCommand(refreshCmd())
	root.AddCommand(feedCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(clearCmd())

	return root
}

func keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the YouTube Data API key",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set [api-key]",
		Short: "Store the API key (falls back to YOUTUBE_API_KEY)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey := ""
			if len(args) == 1 {
				apiKey = args[0]
			}
			return runKeySet(apiKey)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the stored API key (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyShow()
		},
	})

	return cmd
}

func channelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "channel <channel-id>",
		Short: "Resolve a channel and cache it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChannel(args[0])
		},
	}
}

func videosCmd() *cobra.Command {
	var (
		count int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "videos",
		Short: "Fetch the cached channel's latest uploads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVideos(count, all)
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "number of videos (default: from config)")
	cmd.Flags().BoolVar(&all, "all", false, "fetch with the maximum page budget")
	return cmd
}

func commentsCmd() *cobra.Command {
	var (
		count int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Fetch comments across the cached videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComments(count, all)
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "number of comments (default: from config)")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every comment")
	return cmd
}

func topCmd() *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show top commenters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTop(limit, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max commenters to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func latestCmd() *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the latest comments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLatest(limit, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max comments to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run one full cycle: videos, then comments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh()
		},
	}
}

func feedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feed <channel-id>",
		Short: "List uploads via the public Atom feed (no API key)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(args[0])
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Refresh periodically and notify on new comments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch()
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the credential, channel, videos and comments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear()
		},
	}
}
