// Package i18n localizes the strings a host presents to a player: compiled
// step display labels and move official names. Adapted from the teacher's
// own i18n package — same bundle/localizer split, generalized from a
// package-level singleton to an instance a session can hold, since a host
// embedding multiple sessions must not share one global language setting.
package i18n

import (
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Localizer resolves message keys ("step.<id>.label", "move.<id>.name", and
// so on — the caller defines the keyspace) against a loaded message bundle.
type Localizer struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
}

// New loads messageFilePaths (JSON or TOML message files, the teacher's own
// two supported formats) into a fresh bundle and returns a Localizer
// defaulted to English.
func New(messageFilePaths []string) (*Localizer, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, path := range messageFilePaths {
		if _, err := bundle.LoadMessageFile(path); err != nil {
			return nil, fmt.Errorf("i18n: load %s: %w", path, err)
		}
	}

	return &Localizer{
		bundle:    bundle,
		localizer: i18n.NewLocalizer(bundle, language.English.String()),
	}, nil
}

// SetLanguage switches the active language for subsequent lookups.
func (l *Localizer) SetLanguage(lang language.Tag) {
	l.localizer = i18n.NewLocalizer(l.bundle, lang.String())
}

// SetLanguageCode parses a BCP-47 code (e.g. "es", "ja") and switches to it.
func (l *Localizer) SetLanguageCode(code string) error {
	lang, err := language.Parse(code)
	if err != nil {
		return fmt.Errorf("i18n: parse language %q: %w", code, err)
	}
	l.SetLanguage(lang)
	return nil
}

// Resolve looks up key and reports whether a message exists for it,
// leaving the fallback choice to the caller. The trial compiler uses this
// to prefer a translated label while keeping the move database's own text
// when no message is loaded for the key.
func (l *Localizer) Resolve(key string) (string, bool) {
	msg, err := l.localizer.Localize(&i18n.LocalizeConfig{MessageID: key})
	if err != nil {
		return "", false
	}
	return msg, true
}

// String resolves key, falling back to the key itself if no message exists
// for it — a trial file's step IDs are usable display text even with no
// translation bundle loaded.
func (l *Localizer) String(key string) string {
	msg, err := l.localizer.Localize(&i18n.LocalizeConfig{MessageID: key})
	if err != nil {
		return key
	}
	return msg
}

// StringWithData resolves key with template data (e.g. a step's attempt
// count, or the input frame a step was matched on).
func (l *Localizer) StringWithData(key string, data map[string]any) string {
	msg, err := l.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		return key
	}
	return msg
}

// PluralString resolves key using count to select a plural form (e.g.
// "%d attempt(s) remaining").
func (l *Localizer) PluralString(key string, count int) string {
	msg, err := l.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:   key,
		PluralCount: count,
	})
	if err != nil {
		return key
	}
	return msg
}

// StepLabelKey is the conventional message key for a compiled step's
// display label: "step.<id>.label".
func StepLabelKey(stepID string) string {
	return "step." + stepID + ".label"
}

// MoveNameKey is the conventional message key for a move's official name:
// "move.<id>.name".
func MoveNameKey(moveID string) string {
	return "move." + moveID + ".name"
}
