// main package for the namecast command-line client. It drives the service
// over its NATS command subjects: batch generation and cancellation, cache
// stats and clearing, single-utterance playback, and archive import/export.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/namecast/namecast/internal/worker"
	"github.com/nats-io/nats.go"
)

// Flag descriptions.
const (
	flagURLDesc     = "NATS server URL"
	flagPrefixDesc  = "Command subject prefix of the target service"
	flagTimeoutDesc = "Request timeout"
	flagSayDesc     = "Fetch audio for a single text (cache hit or fresh synthesis)"
	flagOutputDesc  = "Output file path for fetched audio or exported archive"
	flagGenDesc     = "Start a batch generation run and wait for its summary"
	flagCancelDesc  = "Request cancellation of the active batch run"
	flagStatsDesc   = "Print the number of cached entries"
	flagClearDesc   = "Delete every cached entry"
	flagExportDesc  = "Export the cache as a zip archive to --output"
	flagImportDesc  = "Import a zip archive of audio entries from the given path"
)

// Flag names.
const (
	flagURL     = "url"
	flagPrefix  = "prefix"
	flagTimeout = "timeout"
	flagSay     = "say"
	flagOutput  = "output"
	flagGen     = "generate"
	flagCancel  = "cancel"
	flagStats   = "stats"
	flagClear   = "clear"
	flagExport  = "export"
	flagImport  = "import"
)

// Error and output messages.
const (
	errExactlyOneCommand = "exactly one of --say, --generate, --cancel, --stats, --clear, --export, or --import must be provided"
	errOutputRequired    = "--output is required for this command"
	errServiceReported   = "service reported an error: %s"

	msgAudioWritten     = "Wrote %d bytes of audio to %s (cached: %t)\n"
	msgRunSummary       = "Run %s finished: %d/%d generated, %d failed, cancelled: %t\n"
	msgCancelStopped    = "Cancellation delivered, run was active: %t\n"
	msgCacheCount       = "Cached entries: %d\n"
	msgCacheCleared     = "Cache cleared.\n"
	msgArchiveWritten   = "Exported %d entries to %s (%d bytes)\n"
	msgArchiveImported  = "Import finished: %d processed, %d saved, %d errored\n"
	defaultNatsTimeout  = 30 * time.Second
	defaultPrefix       = "namecast"
	outputFilePerm      = 0o600
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	url        string
	prefix     string
	timeout    time.Duration
	say        string
	output     string
	generate   bool
	cancel     bool
	stats      bool
	clear      bool
	export     bool
	importPath string
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	if countCommands(flags) != 1 {
		flag.Usage()

		return errors.New(errExactlyOneCommand)
	}

	natsConnection, err := nats.Connect(flags.url)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", flags.url, err)
	}
	defer natsConnection.Close()

	return dispatch(natsConnection, flags)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.url, flagURL, nats.DefaultURL, flagURLDesc)
	flag.StringVar(&flags.prefix, flagPrefix, defaultPrefix, flagPrefixDesc)
	flag.DurationVar(&flags.timeout, flagTimeout, defaultNatsTimeout, flagTimeoutDesc)
	flag.StringVar(&flags.say, flagSay, "", flagSayDesc)
	flag.StringVar(&flags.output, flagOutput, "", flagOutputDesc)
	flag.BoolVar(&flags.generate, flagGen, false, flagGenDesc)
	flag.BoolVar(&flags.cancel, flagCancel, false, flagCancelDesc)
	flag.BoolVar(&flags.stats, flagStats, false, flagStatsDesc)
	flag.BoolVar(&flags.clear, flagClear, false, flagClearDesc)
	flag.BoolVar(&flags.export, flagExport, false, flagExportDesc)
	flag.StringVar(&flags.importPath, flagImport, "", flagImportDesc)
	flag.Parse()

	return flags
}

func countCommands(flags appFlags) int {
	count := 0

	for _, selected := range []bool{
		flags.say != "",
		flags.generate,
		flags.cancel,
		flags.stats,
		flags.clear,
		flags.export,
		flags.importPath != "",
	} {
		if selected {
			count++
		}
	}

	return count
}

func dispatch(natsConnection *nats.Conn, flags appFlags) error {
	switch {
	case flags.say != "":
		return handleSay(natsConnection, flags)
	case flags.generate:
		return handleGenerate(natsConnection, flags)
	case flags.cancel:
		return handleCancel(natsConnection, flags)
	case flags.stats:
		return handleStats(natsConnection, flags)
	case flags.clear:
		return handleClear(natsConnection, flags)
	case flags.export:
		return handleExport(natsConnection, flags)
	default:
		return handleImport(natsConnection, flags)
	}
}

// request sends one JSON request to the service and decodes the reply.
func request[T any](natsConnection *nats.Conn, subject string, payload any, timeout time.Duration) (T, error) {
	var reply T

	data := []byte(nil)

	if payload != nil {
		var err error

		data, err = json.Marshal(payload)
		if err != nil {
			return reply, fmt.Errorf("failed to marshal request for %s: %w", subject, err)
		}
	}

	msg, err := natsConnection.Request(subject, data, timeout)
	if err != nil {
		return reply, fmt.Errorf("request to %s failed: %w", subject, err)
	}

	err = json.Unmarshal(msg.Data, &reply)
	if err != nil {
		return reply, fmt.Errorf("failed to decode reply from %s: %w", subject, err)
	}

	return reply, nil
}

func handleSay(natsConnection *nats.Conn, flags appFlags) error {
	if flags.output == "" {
		return errors.New(errOutputRequired)
	}

	reply, err := request[worker.SpeechReply](
		natsConnection,
		flags.prefix+worker.SubjectSpeechGet,
		worker.SpeechRequest{Text: flags.say},
		flags.timeout,
	)
	if err != nil {
		return err
	}

	if !reply.OK {
		return fmt.Errorf(errServiceReported, reply.Error)
	}

	err = os.WriteFile(flags.output, reply.Audio, outputFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write audio to %s: %w", flags.output, err)
	}

	fmt.Printf(msgAudioWritten, len(reply.Audio), flags.output, reply.Cached)

	return nil
}

func handleGenerate(natsConnection *nats.Conn, flags appFlags) error {
	reply, err := request[worker.GenerateReply](
		natsConnection, flags.prefix+worker.SubjectBatchGenerate, nil, flags.timeout,
	)
	if err != nil {
		return err
	}

	if !reply.OK {
		return fmt.Errorf(errServiceReported, reply.Error)
	}

	fmt.Printf(msgRunSummary,
		reply.RunID,
		reply.Summary.Generated,
		reply.Summary.Total,
		reply.Summary.Failed,
		reply.Summary.Cancelled,
	)

	return nil
}

func handleCancel(natsConnection *nats.Conn, flags appFlags) error {
	reply, err := request[worker.CancelReply](
		natsConnection, flags.prefix+worker.SubjectBatchCancel, nil, flags.timeout,
	)
	if err != nil {
		return err
	}

	if !reply.OK {
		return fmt.Errorf(errServiceReported, reply.Error)
	}

	fmt.Printf(msgCancelStopped, reply.Stopped)

	return nil
}

func handleStats(natsConnection *nats.Conn, flags appFlags) error {
	reply, err := request[worker.StatsReply](
		natsConnection, flags.prefix+worker.SubjectCacheStats, nil, flags.timeout,
	)
	if err != nil {
		return err
	}

	if !reply.OK {
		return fmt.Errorf(errServiceReported, reply.Error)
	}

	fmt.Printf(msgCacheCount, reply.Count)

	return nil
}

func handleClear(natsConnection *nats.Conn, flags appFlags) error {
	reply, err := request[worker.ClearReply](
		natsConnection, flags.prefix+worker.SubjectCacheClear, nil, flags.timeout,
	)
	if err != nil {
		return err
	}

	if !reply.OK {
		return fmt.Errorf(errServiceReported, reply.Error)
	}

	fmt.Print(msgCacheCleared)

	return nil
}

func handleExport(natsConnection *nats.Conn, flags appFlags) error {
	if flags.output == "" {
		return errors.New(errOutputRequired)
	}

	reply, err := request[worker.ExportReply](
		natsConnection, flags.prefix+worker.SubjectArchiveExport, nil, flags.timeout,
	)
	if err != nil {
		return err
	}

	if !reply.OK {
		return fmt.Errorf(errServiceReported, reply.Error)
	}

	err = os.WriteFile(flags.output, reply.Archive, outputFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write archive to %s: %w", flags.output, err)
	}

	fmt.Printf(msgArchiveWritten, reply.Entries, flags.output, len(reply.Archive))

	return nil
}

func handleImport(natsConnection *nats.Conn, flags appFlags) error {
	data, err := os.ReadFile(flags.importPath)
	if err != nil {
		return fmt.Errorf("failed to read archive %s: %w", flags.importPath, err)
	}

	reply, err := request[worker.ImportReply](
		natsConnection,
		flags.prefix+worker.SubjectArchiveImport,
		worker.ImportRequest{Archive: data},
		flags.timeout,
	)
	if err != nil {
		return err
	}

	if !reply.OK {
		return fmt.Errorf(errServiceReported, reply.Error)
	}

	fmt.Printf(msgArchiveImported,
		reply.Summary.Processed, reply.Summary.Saved, reply.Summary.Errored,
	)

	return nil
}
