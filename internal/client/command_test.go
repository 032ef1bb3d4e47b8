package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEspeakVoices(t *testing.T) {
	out := `Pty Language       Age/Gender VoiceName          File                 Other Languages
 2  en-029          --/M      English_(Caribbean) gmw/en-029
 5  en-gb           --/M      English_(Great_Britain) gmw/en
 5  en-us           --/F      English_(America)  gmw/en-US
`
	voices := parseEspeakVoices(out)

	assert.Equal(t, []Voice{
		{Name: "English (Caribbean)", Lang: "en-029"},
		{Name: "English (Great Britain)", Lang: "en-GB"},
		{Name: "English (America) female", Lang: "en-US"},
	}, voices)
}

func TestParseSayVoices(t *testing.T) {
	out := `Alex                en_US    # Most people recognize me by my voice.
Bad News            en_US    # The light you see at the end of the tunnel is the headlamp of a fast approaching train.
Daniel              en_GB    # Hello, my name is Daniel.
`
	voices := parseSayVoices(out)

	assert.Equal(t, []Voice{
		{Name: "Alex", Lang: "en-US"},
		{Name: "Bad News", Lang: "en-US"},
		{Name: "Daniel", Lang: "en-GB"},
	}, voices)
}

func TestCommandSynthesizerArgs(t *testing.T) {
	u := SoothingUtterance("hello", []Voice{{Name: "Daniel", Lang: "en-GB"}})

	espeak := &CommandSynthesizer{engine: "espeak-ng"}
	assert.Equal(t, []string{"-s", "144", "-p", "44", "-a", "88", "-v", "en-gb", "--", "hello"}, espeak.args(u))

	say := &CommandSynthesizer{engine: "say"}
	assert.Equal(t, []string{"-r", "144", "-v", "Daniel", "[[volm 0.88]] hello"}, say.args(u))
}

func TestNewCommandRecognizerEmpty(t *testing.T) {
	_, err := NewCommandRecognizer("  ")
	assert.ErrorIs(t, err, ErrPlatformCapabilityUnavailable)

	_, err = NewCommandRecognizer("definitely-not-a-real-binary-xyz")
	assert.ErrorIs(t, err, ErrPlatformCapabilityUnavailable)
}
