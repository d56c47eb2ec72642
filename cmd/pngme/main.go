package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flaneur2020/pngme/pngme"
	"github.com/flaneur2020/pngme/pngme/logger"
	"github.com/flaneur2020/pngme/pngme/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	debug      bool
	noProgress bool
	compress   bool
	compressed bool

	cfg *Config
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pngme",
		Short:         "Hide and recover messages inside PNG chunks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(".env"); err != nil {
				return err
			}
			c, err := resolveConfig(verbose, debug, noProgress)
			if err != nil {
				return err
			}
			cfg = c
			logger.SetLogLevel(cfg.LogLevel)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress information")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log debug information")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "Disable progress bar (enabled by default on a terminal)")

	// encode command
	encodeCmd := &cobra.Command{
		Use:   "encode <FILE> <CHUNK_TYPE> <MESSAGE> [OUTPUT_FILE]",
		Short: "Embed a message in a new chunk",
		Args:  cobra.RangeArgs(3, 4),
		Run:   runEncode,
	}
	encodeCmd.Flags().BoolVar(&compress, "compress", false, "zlib-compress the message before embedding")

	// decode command
	decodeCmd := &cobra.Command{
		Use:   "decode <FILE> <CHUNK_TYPE>",
		Short: "Print the message stored in the first chunk of a type",
		Args:  cobra.ExactArgs(2),
		Run:   runDecode,
	}
	decodeCmd.Flags().BoolVar(&compressed, "compressed", false, "The message was embedded with --compress")

	// remove command
	removeCmd := &cobra.Command{
		Use:   "remove <FILE> <CHUNK_TYPE>",
		Short: "Remove the first chunk of a type, overwriting the file",
		Args:  cobra.ExactArgs(2),
		Run:   runRemove,
	}

	// print command
	printCmd := &cobra.Command{
		Use:   "print <FILE>...",
		Short: "Print the chunks of one or more PNG files",
		Args:  cobra.MinimumNArgs(1),
		Run:   runPrint,
	}

	rootCmd.AddCommand(encodeCmd, decodeCmd, removeCmd, printCmd)
	return rootCmd
}

func fail(format string, args ...interface{}) {
	logger.Debug(format, args...)
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// newStorage returns local storage, with a progress bar on writes unless disabled.
func newStorage(label string) (*storage.LocalStorage, func()) {
	s := storage.NewLocalStorage()
	if cfg == nil || cfg.NoProgress {
		return s, func() {}
	}

	var bar *progressbar.ProgressBar
	s = s.WithProgress(func(current, total int64) {
		if bar == nil && total > 0 {
			bar = progressbar.DefaultBytes(total, label)
		}
		if bar != nil {
			bar.Set64(current)
		}
	})
	return s, func() {
		if bar != nil {
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)
		}
	}
}

func runEncode(cmd *cobra.Command, args []string) {
	req := pngme.EncodeRequest{
		Path:      args[0],
		ChunkType: args[1],
		Message:   args[2],
		Compress:  compress,
	}
	if len(args) > 3 {
		req.OutputPath = args[3]
	}

	if err := validateInput(req.Path); err != nil {
		fail("%v", err)
	}
	if req.OutputPath != "" {
		if err := validateOutput(req.OutputPath); err != nil {
			fail("%v", err)
		}
	}

	target := req.OutputPath
	if target == "" {
		target = req.Path
	}
	s, done := newStorage(fmt.Sprintf("Writing %s", filepath.Base(target)))
	err := pngme.NewEditor(s).Encode(context.Background(), req)
	done()
	if err != nil {
		fail("%v", err)
	}

	fmt.Printf("Embedded %s chunk into %s\n", req.ChunkType, target)
}

func runDecode(cmd *cobra.Command, args []string) {
	path, chunkType := args[0], args[1]
	if err := validateInput(path); err != nil {
		fail("%v", err)
	}

	message, err := pngme.NewEditor(storage.NewLocalStorage()).Decode(context.Background(), pngme.DecodeRequest{
		Path:       path,
		ChunkType:  chunkType,
		Compressed: compressed,
	})
	if err != nil {
		fail("%v", err)
	}

	fmt.Println(message)
}

func runRemove(cmd *cobra.Command, args []string) {
	path, chunkType := args[0], args[1]
	if err := validateInput(path); err != nil {
		fail("%v", err)
	}

	s, done := newStorage(fmt.Sprintf("Writing %s", filepath.Base(path)))
	removed, err := pngme.NewEditor(s).Remove(context.Background(), path, chunkType)
	done()
	if err != nil {
		fail("%v", err)
	}

	fmt.Printf("Removed %s\n", removed)
}

func runPrint(cmd *cobra.Command, args []string) {
	for _, path := range args {
		if err := validateInput(path); err != nil {
			fail("%v", err)
		}
	}

	summaries, err := pngme.NewEditor(storage.NewLocalStorage()).Inspect(context.Background(), args...)
	if err != nil {
		fail("%v", err)
	}

	for i, s := range summaries {
		if i > 0 {
			fmt.Println()
		}
		if err := s.Render(os.Stdout); err != nil {
			fail("%v", err)
		}
	}
}
