package locale

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

//go:embed configs/*.json
var builtin embed.FS

var validate = validator.New()

// Loader resolves locale configs, preferring files in Dir over the embedded
// defaults. Results are cached per code.
type Loader struct {
	Dir string

	mu    sync.Mutex
	cache map[string]*Config
}

// NewLoader returns a loader reading overrides from dir. An empty dir means
// embedded configs only.
func NewLoader(dir string) *Loader {
	return &Loader{Dir: strings.TrimSpace(dir)}
}

var defaultLoader = NewLoader("")

// Load returns the embedded config for code.
func Load(code string) (*Config, error) {
	return defaultLoader.Load(code)
}

// Load returns the config for code. Unknown codes yield a *ConfigNotFoundError.
func (l *Loader) Load(code string) (*Config, error) {
	code = strings.ToLower(strings.TrimSpace(code))

	l.mu.Lock()
	defer l.mu.Unlock()

	if cfg, ok := l.cache[code]; ok {
		return cfg, nil
	}

	data, err := l.read(code)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &InvalidConfigError{Code: code, Err: err}
	}
	cfg.Code = code

	if err := validate.Struct(&cfg); err != nil {
		return nil, invalid(code, err)
	}

	if l.cache == nil {
		l.cache = make(map[string]*Config)
	}
	l.cache[code] = &cfg

	return &cfg, nil
}

func (l *Loader) read(code string) ([]byte, error) {
	if code == "" || strings.ContainsAny(code, `/\.`) {
		return nil, &ConfigNotFoundError{Code: code}
	}
	name := fmt.Sprintf("config_%s.json", code)

	if l.Dir != "" {
		data, err := os.ReadFile(filepath.Join(l.Dir, name))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading locale config %s: %w", name, err)
		}
	}

	data, err := builtin.ReadFile("configs/" + name)
	if err != nil {
		return nil, &ConfigNotFoundError{Code: code}
	}
	return data, nil
}

func invalid(code string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &InvalidConfigError{Code: code, Err: err}
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, jsonKey(fe.Namespace()))
	}
	return &InvalidConfigError{Code: code, Fields: fields, Err: err}
}

var keys = map[string]string{
	"AddressKeywords": "address_keywords",
	"LanguagesList":   "languages_list",
	"CertKeywords":    "cert_keywords",
	"HeaderKeywords":  "header_keywords",
}

// jsonKey maps "Config.HeaderKeywords[0].Labels" to "header_keywords[0].Labels".
func jsonKey(namespace string) string {
	namespace = strings.TrimPrefix(namespace, "Config.")
	for field, key := range keys {
		if strings.HasPrefix(namespace, field) {
			return key + strings.TrimPrefix(namespace, field)
		}
	}
	return namespace
}
