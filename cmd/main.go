// Package main is the entry point of Audio Lab, a set of audio demos that
// visualise playback with an animated equalizer.
//
// Build:
//
//	go build -o build/audiolab ./cmd
//
// Run:
//
//	./build/audiolab -example buffer-source -asset song.wav
//	./build/audiolab -example equalizer -analyser spectrum -asset song.mp3
//	./build/audiolab -frontend ebiten -example equalizer -asset https://example.com/song.ogg
//	arecord -f S16_LE -c 2 -r 44100 | ./build/audiolab -example audio-stream
//	./build/audiolab -list
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/tejashwikalptaru/audiolab/internal/adapter/audio/stream"
	"github.com/tejashwikalptaru/audiolab/internal/analysis"
	"github.com/tejashwikalptaru/audiolab/internal/app"
	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/logger"
	"github.com/tejashwikalptaru/audiolab/internal/service"
)

func main() {
	config := app.DefaultConfig()

	example := flag.String("example", "", "demo to show (default: the last one shown)")
	asset := flag.String("asset", "", "audio file path or http(s) URL to load at startup")
	frontend := flag.String("frontend", config.Frontend, "window toolkit: fyne or ebiten")
	fps := flag.Int("fps", config.FrameRate, "equalizer frame rate of the fyne frontend")
	sampleRate := flag.Int("rate", config.SampleRate, "audio output sample rate")
	mockAudio := flag.Bool("mock", false, "use a silent mock audio engine")
	list := flag.Bool("list", false, "list the demos and exit")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn or error")
	logFormat := flag.String("log-format", config.LogFormat, "log format: text or json")
	analyserMode := flag.String("analyser", "", "force waveform or spectrum analysis for every demo")
	streamEncoding := flag.String("stream-encoding", string(config.Stream.Encoding), "audio-stream sample format: s16le or f32le")
	streamRate := flag.Int("stream-rate", config.Stream.SampleRate, "audio-stream sample rate")
	streamChannels := flag.Int("stream-channels", config.Stream.Channels, "audio-stream channel count")
	version := flag.Bool("version", false, "print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: audiolab [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Plays audio through one of the demos and draws its equalizer.\n\n")
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr)
		printCatalogue(os.Stderr)
	}
	flag.Parse()

	if *version {
		fmt.Println(app.GetVersionInfo().FullString())
		return
	}
	if *list {
		printCatalogue(os.Stdout)
		return
	}

	config.Example = *example
	config.Asset = *asset
	config.Frontend = *frontend
	config.FrameRate = *fps
	config.SampleRate = *sampleRate
	config.UseMockAudio = *mockAudio
	config.MockRealtime = *mockAudio
	config.LogFormat = *logFormat
	config.Stream.SampleRate = *streamRate
	config.Stream.Channels = *streamChannels

	if *logLevel != "" {
		level, ok := logger.ParseLevel(*logLevel)
		if !ok {
			log.Fatalf("Unknown log level %q", *logLevel)
		}
		config.LogLevel = level
	}

	if *analyserMode != "" {
		mode, err := analysis.ParseMode(*analyserMode)
		if err != nil {
			log.Fatalf("Invalid analyser: %v", err)
		}
		config.Analyser = mode
	}

	encoding, err := stream.ParseEncoding(*streamEncoding)
	if err != nil {
		log.Fatalf("Invalid stream encoding: %v", err)
	}
	config.Stream.Encoding = encoding

	// Create the application with dependency injection
	application, err := app.NewApplication(config)
	if errors.Is(err, domain.ErrUnknownExample) {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		printCatalogue(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Ensure a graceful shutdown
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}()

	// Run application (blocks until the window closed)
	if err := application.Run(); err != nil {
		log.Printf("Application error: %v", err)
	}
}

// printCatalogue lists every demo with its description.
func printCatalogue(out io.Writer) {
	fmt.Fprintln(out, "Demos:")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, e := range service.Catalogue() {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", e.Name, e.Title, e.Description)
	}
	_ = tw.Flush()
}
