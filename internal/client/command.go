package client

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// espeak's defaults the soothing profile is scaled against.
const (
	espeakWordsPerMinute = 175
	espeakPitch          = 50
	espeakAmplitude      = 100
)

var synthCommands = []string{"espeak-ng", "espeak", "say"}

// CommandSynthesizer speaks through an installed espeak-ng, espeak or macOS
// say binary.
type CommandSynthesizer struct {
	path   string
	engine string
}

// DetectSynthesizer returns the first speech command found on PATH.
func DetectSynthesizer() (*CommandSynthesizer, error) {
	for _, name := range synthCommands {
		if path, err := exec.LookPath(name); err == nil {
			return &CommandSynthesizer{path: path, engine: name}, nil
		}
	}
	return nil, ErrPlatformCapabilityUnavailable
}

// Engine names the backing command.
func (s *CommandSynthesizer) Engine() string { return s.engine }

func (s *CommandSynthesizer) Voices(ctx context.Context) ([]Voice, error) {
	var cmd *exec.Cmd
	if s.engine == "say" {
		cmd = exec.CommandContext(ctx, s.path, "-v", "?")
	} else {
		cmd = exec.CommandContext(ctx, s.path, "--voices=en")
	}
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s voices: %w", s.engine, err)
	}
	if s.engine == "say" {
		return parseSayVoices(string(out)), nil
	}
	return parseEspeakVoices(string(out)), nil
}

func (s *CommandSynthesizer) Speak(ctx context.Context, u Utterance) error {
	cmd := exec.CommandContext(ctx, s.path, s.args(u)...)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (s *CommandSynthesizer) args(u Utterance) []string {
	wpm := scaled(u.Rate, espeakWordsPerMinute)
	if s.engine == "say" {
		args := []string{"-r", wpm}
		if u.Voice.Name != "" {
			args = append(args, "-v", u.Voice.Name)
		}
		return append(args, fmt.Sprintf("[[volm %.2f]] %s", u.Volume, u.Text))
	}

	voice := strings.ToLower(u.Lang)
	if u.Voice.Lang != "" {
		voice = strings.ToLower(u.Voice.Lang)
	}
	return []string{
		"-s", wpm,
		"-p", scaled(u.Pitch, espeakPitch),
		"-a", scaled(u.Volume, espeakAmplitude),
		"-v", voice,
		"--", u.Text,
	}
}

func scaled(factor float64, base int) string {
	return strconv.Itoa(int(math.Round(factor * float64(base))))
}

// parseEspeakVoices reads `espeak --voices` output:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  en-gb          --/M      English_(Great_Britain) gmw/en
func parseEspeakVoices(out string) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		name := strings.ReplaceAll(fields[3], "_", " ")
		if strings.HasSuffix(fields[2], "F") {
			name += " female"
		}
		voices = append(voices, Voice{Name: name, Lang: canonicalLang(fields[1])})
	}
	return voices
}

// parseSayVoices reads `say -v ?` output:
//
//	Samantha            en_US    # Hello, my name is Samantha.
func parseSayVoices(out string) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		lang := fields[len(fields)-1]
		name := strings.Join(fields[:len(fields)-1], " ")
		voices = append(voices, Voice{Name: name, Lang: canonicalLang(lang)})
	}
	return voices
}

// canonicalLang turns en_gb or en-gb into en-GB.
func canonicalLang(tag string) string {
	tag = strings.ReplaceAll(tag, "_", "-")
	base, region, ok := strings.Cut(tag, "-")
	if !ok {
		return strings.ToLower(tag)
	}
	return strings.ToLower(base) + "-" + strings.ToUpper(region)
}

// CommandRecognizer runs an external speech-to-text command that records
// one utterance and prints its transcript on stdout.
type CommandRecognizer struct {
	argv []string
	lang string
}

// NewCommandRecognizer parses a command line such as "whisper-listen --once".
// An empty line means no recognizer is available.
func NewCommandRecognizer(commandLine string) (*CommandRecognizer, error) {
	argv := strings.Fields(commandLine)
	if len(argv) == 0 {
		return nil, ErrPlatformCapabilityUnavailable
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlatformCapabilityUnavailable, err)
	}
	return &CommandRecognizer{argv: argv, lang: "en-US"}, nil
}

func (r *CommandRecognizer) Listen(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...)
	cmd.Env = append(os.Environ(), "RECOGNITION_LANG="+r.lang)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
