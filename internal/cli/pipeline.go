package cli

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/aretw0/speriment"
	"github.com/aretw0/speriment/internal/logging"
	"github.com/aretw0/speriment/pkg/adapters/document"
	"github.com/aretw0/speriment/pkg/adapters/file"
	"github.com/aretw0/speriment/pkg/adapters/memory"
	"github.com/aretw0/speriment/pkg/adapters/redis"
	"github.com/aretw0/speriment/pkg/domain"
	"github.com/aretw0/speriment/pkg/dsl"
	"github.com/aretw0/speriment/pkg/persistence/middleware"
	"github.com/aretw0/speriment/pkg/ports"
	"github.com/aretw0/speriment/pkg/schema"
	"github.com/aretw0/speriment/pkg/session"
)

// NewLogger builds the application logger on w from cfg.
func NewLogger(cfg LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(w, level, cfg.Format == "json"), nil
}

// NewCompiler creates a compiler honoring the configured schema override.
func NewCompiler(cfg CompileConfig, logger *slog.Logger, hooks domain.CompileHooks) (*speriment.Compiler, error) {
	opts := []speriment.Option{
		speriment.WithLogger(logger),
		speriment.WithHooks(hooks),
	}
	if cfg.Schema != "" {
		data, err := os.ReadFile(cfg.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}
		gate, err := schema.Load(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.Schema, err)
		}
		opts = append(opts, speriment.WithSchema(gate))
	}
	return speriment.New(opts...)
}

// OpenStore returns the configured artifact store and a function releasing it.
// Type "none" yields a nil store. mws wrap the store after encryption, so they
// observe the envelope rather than the artifact.
func OpenStore(cfg StoreConfig, mws ...middleware.Middleware) (ports.ArtifactStore, func() error, error) {
	noop := func() error { return nil }
	var store ports.ArtifactStore
	closeFn := noop
	switch cfg.Type {
	case "", "none":
		return nil, noop, nil
	case "memory":
		store = memory.NewStore()
	case "file":
		store = file.New(cfg.Path)
	case "redis":
		var opts []redis.Option
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		if cfg.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.TTL))
		}
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		store, closeFn = rs, rs.Close
	default:
		return nil, noop, fmt.Errorf("unknown store type %q", cfg.Type)
	}

	if cfg.EncryptionKey != "" {
		encrypt, err := encryption(cfg)
		if err != nil {
			_ = closeFn()
			return nil, noop, err
		}
		store = encrypt(store)
	}
	return middleware.Chain(store, mws...), closeFn, nil
}

func encryption(cfg StoreConfig) (middleware.Middleware, error) {
	decode := func(field, v string) ([]byte, error) {
		key, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("store.%s is not valid base64: %w", field, err)
		}
		return key, nil
	}
	active, err := decode("encryption_key", cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	ec := middleware.EncryptionConfig{ActiveKey: active}
	for _, v := range cfg.FallbackKeys {
		key, err := decode("fallback_keys", v)
		if err != nil {
			return nil, err
		}
		ec.FallbackKeys = append(ec.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(ec)
}

// Compile loads the document at path and compiles it in a fresh session.
func Compile(c *speriment.Compiler, path string, seed int) (*speriment.Artifact, *document.Document, error) {
	doc, err := document.Load(path)
	if err != nil {
		return nil, nil, err
	}
	art, err := c.Build(seed, doc.Build)
	if err != nil {
		return nil, doc, err
	}
	return art, doc, nil
}

// Expand loads the document at path and returns its expanded tree.
func Expand(c *speriment.Compiler, path string, seed int) (*domain.Experiment, error) {
	doc, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	var out *domain.Experiment
	err = session.Scope(seed, func(s *session.Session) error {
		exp, err := doc.Build(dsl.New(s))
		if err != nil {
			return err
		}
		out, err = c.Expand(s, exp)
		return err
	})
	return out, err
}

// ArtifactName picks the host variable name: the flag, then the document's
// name, then one derived from the file name.
func ArtifactName(flag string, doc *document.Document, path string) string {
	if flag != "" {
		return flag
	}
	if doc != nil && doc.Name != "" {
		return doc.Name
	}
	return NameFromPath(path)
}

// NameFromPath turns "studies/lexical-decision.yaml" into "lexical_decision".
func NameFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var sb strings.Builder
	for i, r := range base {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r) && r < unicode.MaxASCII:
			sb.WriteRune(r)
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	name := sb.String()
	if !domain.ValidVariableName(name) {
		name = "_" + name
	}
	return name
}

// Render formats an artifact as configured.
func Render(art *speriment.Artifact, format, name string) ([]byte, error) {
	if format == "script" {
		return art.Script(name)
	}
	return art.JSON, nil
}
