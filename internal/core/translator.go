package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robo-univ/agent-portal/internal/cache"
	"github.com/robo-univ/agent-portal/internal/utils"
)

const translationInstruction = "You are a professional translator. Translate the user's text into %s literally and faithfully. " +
	"Return only the translation, with no explanations, quotes or notes."

// maxParallelTranslations bounds concurrent model calls in TranslateAll.
const maxParallelTranslations = 4

type TranslatorConfig struct {
	Model    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Translator turns source-language text into the session language. It never
// fails: any error yields the input text unchanged.
type Translator struct {
	llm   Completer
	cache cache.Cache // optional
	cfg   TranslatorConfig
}

func NewTranslator(llm Completer, c cache.Cache, cfg TranslatorConfig) *Translator {
	return &Translator{llm: llm, cache: c, cfg: cfg}
}

// NeedsTranslation reports whether text would be sent to the model for lang.
func NeedsTranslation(text, lang string) bool {
	return utils.NormalizeLanguage(lang) != utils.SourceLanguage &&
		strings.TrimSpace(text) != "" &&
		utils.ContainsSourceScript(text)
}

func (t *Translator) Translate(ctx context.Context, text, targetLanguage string) string {
	lang := utils.NormalizeLanguage(targetLanguage)
	if t == nil || t.llm == nil || !NeedsTranslation(text, lang) {
		return text
	}

	key := translationCacheKey(lang, text)
	if cached := t.fromCache(ctx, key); cached != "" {
		return cached
	}

	callCtx := ctx
	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	translated, err := t.llm.Complete(callCtx, CompletionRequest{
		Model:             t.cfg.Model,
		SystemInstruction: fmt.Sprintf(translationInstruction, languageName(lang)),
		Prompt:            text,
		Temperature:       0,
	})
	translated = strings.TrimSpace(translated)
	if err != nil || translated == "" {
		log.Warn().Err(err).Str("language", lang).Int("length", len(text)).Msg("Translation failed, using original text")
		return text
	}

	t.toCache(ctx, key, translated)
	return translated
}

// TranslateAll translates independent strings concurrently, preserving order.
func (t *Translator) TranslateAll(ctx context.Context, texts []string, targetLanguage string) []string {
	out := make([]string, len(texts))
	copy(out, texts)
	if t == nil || utils.NormalizeLanguage(targetLanguage) == utils.SourceLanguage {
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelTranslations)
	for i, text := range texts {
		if !NeedsTranslation(text, targetLanguage) {
			continue
		}
		i, text := i, text
		g.Go(func() error {
			out[i] = t.Translate(gctx, text, targetLanguage)
			return nil
		})
	}
	_ = g.Wait() // Translate never returns errors
	return out
}

func (t *Translator) fromCache(ctx context.Context, key string) string {
	if t.cache == nil {
		return ""
	}
	val, err := t.cache.Get(ctx, key)
	if err != nil {
		log.Debug().Err(err).Msg("Translation cache read failed")
		return ""
	}
	return string(val)
}

func (t *Translator) toCache(ctx context.Context, key, value string) {
	if t.cache == nil {
		return
	}
	if err := t.cache.Set(ctx, key, []byte(value), t.cfg.CacheTTL); err != nil {
		log.Debug().Err(err).Msg("Translation cache write failed")
	}
}

func translationCacheKey(lang, text string) string {
	sum := sha256.Sum256([]byte(lang + "\x00" + text))
	return "translation:" + lang + ":" + hex.EncodeToString(sum[:])
}
