package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/DreamCats/movierec/cmd/movierec/internal"
	"github.com/DreamCats/movierec/internal/config"
	"github.com/DreamCats/movierec/internal/logging"
)

var subcommands = map[string]func(cfg *config.Config, args []string){
	"import":    handleImport,
	"recommend": handleRecommend,
	"search":    handleSearch,
	"titles":    handleTitles,
	"movie":     handleMovie,
	"stats":     handleStats,
	"serve":     handleServe,
	"mcp":       handleMCP,
}

func main() {
	if len(os.Args) < 2 {
		internal.PrintUsage()
		os.Exit(1)
	}
	args := os.Args[1:]

	// The subcommand is the first argument naming one; anything before it is
	// a global flag or a global flag value.
	subcommandIndex := -1
	for i, arg := range args {
		if _, ok := subcommands[arg]; ok {
			subcommandIndex = i
			break
		}
	}

	globalFlags := args
	if subcommandIndex >= 0 {
		globalFlags = args[:subcommandIndex]
	}

	configPath := ""
	logLevel := ""
	for i := 0; i < len(globalFlags); i++ {
		switch flag := globalFlags[i]; flag {
		case "-config", "--config":
			if i+1 < len(globalFlags) {
				configPath = globalFlags[i+1]
				i++
			}
		case "-log-level", "--log-level":
			if i+1 < len(globalFlags) {
				logLevel = globalFlags[i+1]
				i++
			}
		case "-h", "-help", "--help":
			internal.PrintUsage()
			os.Exit(0)
		case "-v", "-version", "--version":
			fmt.Printf("movierec version %s\n", internal.Version)
			os.Exit(0)
		default:
			if strings.HasPrefix(flag, "-") {
				fmt.Fprintf(os.Stderr, "Error: Unknown global flag: %s\n\n", flag)
			} else {
				fmt.Fprintf(os.Stderr, "Error: Unknown command: %s\n\n", flag)
			}
			internal.PrintUsage()
			os.Exit(1)
		}
	}

	if subcommandIndex == -1 {
		fmt.Fprintf(os.Stderr, "Error: No subcommand specified\n\n")
		internal.PrintUsage()
		os.Exit(1)
	}
	subcommand := args[subcommandIndex]

	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		var notFound *config.ConfigNotFoundError
		if errors.As(err, &notFound) {
			if subcommand == "import" {
				created, createErr := config.WriteDefaultTemplate(notFound.RequestedPath)
				if createErr != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
					fmt.Fprintf(os.Stderr, "Also failed to create default config at %s: %v\n\n", notFound.RequestedPath, createErr)
					internal.PrintConfigExample()
					os.Exit(1)
				}
				if created {
					fmt.Fprintf(os.Stderr, "Created default config at %s\n", notFound.RequestedPath)
				}
				fmt.Fprintln(os.Stderr, "Please set dataset.movies_file in the config file and rerun `movierec import`.")
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			internal.PrintConfigExample()
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	closer, err := internal.SetupLogging(cfg, subcommand)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to initialize log file")
	}
	defer closer.Close()

	subcommands[subcommand](cfg, args[subcommandIndex+1:])
}
