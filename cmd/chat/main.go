package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/infogenius-ai/chat-relay/internal/client"
	"github.com/infogenius-ai/chat-relay/pkg/logger"
)

const (
	colorReset  = "\033[0m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

type options struct {
	serverURL  string
	prefsPath  string
	sttCommand string
	newSession bool
	verbose    bool
}

func main() {
	_ = godotenv.Load()

	opts := parseFlags()

	log := logger.Nop()
	if opts.verbose {
		l, err := logger.New(os.Getenv("LOG_MODE"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
			os.Exit(1)
		}
		log = l
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, log); err != nil {
		fmt.Fprintf(os.Stderr, "chat: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() options {
	opts := options{
		serverURL:  envOr("RELAY_URL", "http://localhost:5000"),
		sttCommand: os.Getenv("STT_COMMAND"),
	}
	defaultPrefs, err := client.DefaultPreferencesPath()
	if err != nil {
		defaultPrefs = "preferences.yaml"
	}

	flag.StringVar(&opts.serverURL, "server", opts.serverURL, "Relay server URL")
	flag.StringVar(&opts.prefsPath, "prefs", defaultPrefs, "Preferences file")
	flag.StringVar(&opts.sttCommand, "stt-cmd", opts.sttCommand, "Speech-to-text command that prints one transcript")
	flag.BoolVar(&opts.newSession, "new-session", true, "Mint a fresh session on the server")
	flag.BoolVar(&opts.verbose, "verbose", false, "Log diagnostics to stderr")
	flag.Parse()
	return opts
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

type app struct {
	prefs    *client.Preferences
	renderer *client.Renderer
	player   *client.Player
	recorder *client.Recorder
	session  *client.Session
	heard    chan string
	pending  string
}

func run(ctx context.Context, opts options, log *logger.Logger) error {
	prefs, err := client.LoadPreferences(opts.prefsPath)
	if err != nil {
		return err
	}

	a := &app{prefs: prefs, heard: make(chan string, 1)}
	if err := a.applyPreferences(); err != nil {
		return err
	}

	var synth client.Synthesizer
	if s, err := client.DetectSynthesizer(); err == nil {
		synth = s
		log.Debug("speech output available", "engine", s.Engine())
	}
	a.player = client.NewPlayer(synth, log.With("component", "player"))

	var recognizer client.Recognizer
	if r, err := client.NewCommandRecognizer(opts.sttCommand); err == nil {
		recognizer = r
	}
	a.recorder = client.NewRecorder(recognizer,
		func(text string) { a.heard <- text },
		func(err error) {
			log.Warn("speech recognition error", "error", err)
			printWarning(client.AlertVoiceError)
		})

	relay := client.NewRelayClient(opts.serverURL)
	if opts.newSession {
		if s, err := relay.CreateSession(ctx); err != nil {
			log.Warn("session minting failed, using the shared session", "error", err)
		} else {
			log.Debug("session created", "session_id", s.ID)
		}
	}

	a.session = client.NewSession(relay,
		client.WithSpeech(a.player),
		client.WithObserver(a.onEvent),
		client.WithLogger(log.With("component", "session")),
	)

	a.printWelcome()
	a.session.Greet()

	lines := make(chan string)
	go readLines(lines)

	for {
		printPrompt()
		select {
		case <-ctx.Done():
			a.player.Stop()
			fmt.Printf("\n%sGoodbye! 👋%s\n", colorCyan, colorReset)
			return nil
		case text := <-a.heard:
			a.pending = text
			fmt.Printf("\n%sHeard: %q. Press Enter to send it, or type a new message.%s\n", colorGray, text, colorReset)
		case line, ok := <-lines:
			if !ok {
				a.player.Stop()
				return nil
			}
			if done := a.handleLine(ctx, line); done {
				a.player.Stop()
				fmt.Printf("%sGoodbye! 👋%s\n", colorCyan, colorReset)
				return nil
			}
		}
	}
}

func readLines(out chan<- string) {
	defer close(out)
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		out <- sc.Text()
	}
}

// handleLine runs a slash command or submits the line. It reports whether
// the user asked to quit.
func (a *app) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/exit", "/quit":
		return true
	case "/theme":
		a.setTheme(arg)
	case "/font":
		a.setFont(arg)
	case "/speak":
		a.speak(arg)
	case "/stop":
		a.player.Stop()
	case "/voice":
		a.toggleVoice()
	case "/help":
		a.printHelp()
	default:
		if line == "" && a.pending != "" {
			line = a.pending
		}
		a.pending = ""
		_, _ = a.session.Submit(ctx, line)
	}
	return false
}

func (a *app) onEvent(e client.Event) {
	switch e.Kind {
	case client.EventAdded, client.EventUpdated:
		a.printMessage(e.Message)
	case client.EventAlert:
		printWarning(e.Alert)
	}
}

func (a *app) printMessage(m client.Message) {
	out, err := a.renderer.Render(m)
	if err != nil {
		out = client.StripHTML(m.Content) + "\n"
	}
	fmt.Print(out)
	if m.HasAction(client.ActionReadAloud) && a.player.Supported() {
		fmt.Printf("%s  🎧 /speak to read aloud%s\n", colorGray, colorReset)
	}
}

func (a *app) applyPreferences() error {
	r, err := client.NewRenderer(a.prefs.Theme(), a.prefs.FontSize(), client.TerminalWidth(int(os.Stdout.Fd())))
	if err != nil {
		return err
	}
	a.renderer = r
	return nil
}

func (a *app) setTheme(arg string) {
	if err := a.prefs.SetTheme(client.Theme(arg)); err != nil {
		printWarning(err.Error())
		return
	}
	if err := a.applyPreferences(); err != nil {
		printWarning(err.Error())
		return
	}
	printInfo("Theme set to " + arg)
}

func (a *app) setFont(arg string) {
	if err := a.prefs.SetFontSize(client.FontSize(arg)); err != nil {
		printWarning(err.Error())
		return
	}
	if err := a.applyPreferences(); err != nil {
		printWarning(err.Error())
		return
	}
	printInfo("Font size set to " + arg)
}

// speak reads the last bot message aloud, or the n-th message when arg is a number.
func (a *app) speak(arg string) {
	msgs := a.session.Transcript().Messages()
	var target *client.Message
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(msgs) {
		target = &msgs[n-1]
	} else {
		for i := len(msgs) - 1; i >= 0; i-- {
			if msgs[i].HasAction(client.ActionReadAloud) {
				target = &msgs[i]
				break
			}
		}
	}
	if target == nil {
		printWarning("Nothing to read aloud yet.")
		return
	}
	if err := a.player.Speak(target.Content); err != nil {
		printWarning(speechUnsupported(err))
	}
}

func (a *app) toggleVoice() {
	if err := a.recorder.Toggle(); err != nil {
		printWarning(client.AlertText(err))
		return
	}
	if a.recorder.State() == client.RecorderRecording {
		printInfo("🔴 Listening... type /voice again to stop.")
	} else {
		printInfo("🎤 Stopped listening.")
	}
}

func speechUnsupported(err error) string {
	if errors.Is(err, client.ErrPlatformCapabilityUnavailable) {
		return "Read aloud needs espeak-ng, espeak or say on your PATH."
	}
	return err.Error()
}

func (a *app) printWelcome() {
	fmt.Printf("%sInfoGenius AI helper%s\n", colorCyan, colorReset)
	fmt.Printf("%sTheme: %s. Font: %s. Type /help for commands.%s\n\n", colorGray, a.prefs.Theme(), a.prefs.FontSize(), colorReset)
}

func (a *app) printHelp() {
	lines := []string{
		"/theme cream|light|dark   change colours",
		"/font small|medium|large  change text size",
		"/speak [n]                read the last reply (or message n) aloud",
		"/stop                     stop reading",
	}
	if a.recorder.Supported() {
		lines = append(lines, "/voice                    start or stop voice input")
	}
	lines = append(lines, "/exit                     quit")
	for _, l := range lines {
		fmt.Printf("%s  %s%s\n", colorGray, l, colorReset)
	}
}

func printPrompt() {
	fmt.Printf("%s> %s", colorCyan, colorReset)
}

func printInfo(msg string) {
	fmt.Printf("%sℹ %s%s\n", colorCyan, msg, colorReset)
}

func printWarning(msg string) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, msg, colorReset)
}
