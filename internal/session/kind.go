// Package session assembles agents: it maps an agent kind onto its
// system prompt and tool registry, and runs conversations against a
// history store.
package session

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/scoutagent/scout/internal/config"
	"github.com/scoutagent/scout/internal/forge"
	"github.com/scoutagent/scout/internal/httpkit"
	"github.com/scoutagent/scout/internal/tools"
	"github.com/scoutagent/scout/internal/weather"
	"github.com/scoutagent/scout/internal/wikipedia"
)

// Kind selects one of the built-in agents. The set is closed: adding
// an agent means adding a constant here and a case in newAgent.
type Kind int

const (
	// KindGitHub answers questions about GitHub repositories.
	KindGitHub Kind = iota
	// KindWeather answers questions about current weather.
	KindWeather
	// KindWikipedia answers questions using Wikipedia content.
	KindWikipedia
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case KindGitHub:
		return "github"
	case KindWeather:
		return "weather"
	case KindWikipedia:
		return "wikipedia"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a configuration string onto a Kind. "wiki" is
// accepted as shorthand for "wikipedia".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "github":
		return KindGitHub, nil
	case "weather":
		return KindWeather, nil
	case "wikipedia", "wiki":
		return KindWikipedia, nil
	default:
		return 0, fmt.Errorf("unknown agent kind %q (want github, weather, or wikipedia)", s)
	}
}

// Deps holds the external handles one agent instance owns: the
// outbound transport its tools share. Acquired when the agent is
// built, released with Close once the request or chat session is done.
type Deps struct {
	httpClient *http.Client
}

// Close releases the transport. Safe on a nil receiver.
func (d *Deps) Close() {
	if d != nil && d.httpClient != nil {
		d.httpClient.CloseIdleConnections()
	}
}

// Agent bundles everything one agent kind needs to run: its prompt,
// its tools, and the dependencies they hold.
type Agent struct {
	Kind         Kind
	SystemPrompt string
	Registry     *tools.Registry
	deps         *Deps
}

// Close releases the agent's dependencies. Callers must defer this
// after a successful newAgent.
func (a *Agent) Close() {
	a.deps.Close()
}

// newAgent is the single construction site for agents. Every kind's
// prompt, tool set, and dependency bundle is wired here and nowhere
// else.
func newAgent(kind Kind, cfg *config.Config, logger *slog.Logger) (*Agent, error) {
	reg := tools.NewRegistry()

	switch kind {
	case KindGitHub:
		hc := httpkit.NewClient()
		gh, err := forge.New(cfg.GitHub.Token, logger, forge.WithHTTPClient(hc))
		if err != nil {
			return nil, fmt.Errorf("github client: %w", err)
		}
		forge.RegisterTools(reg, gh)
		return &Agent{
			Kind:         kind,
			SystemPrompt: forge.SystemPrompt,
			Registry:     reg,
			deps:         &Deps{httpClient: hc},
		}, nil

	case KindWeather:
		hc := httpkit.NewClient()
		w := weather.New(cfg.Weather.GeoAPIKey, cfg.Weather.APIKey, weather.WithHTTPClient(hc))
		weather.RegisterTools(reg, w)
		return &Agent{
			Kind:         kind,
			SystemPrompt: weather.SystemPrompt,
			Registry:     reg,
			deps:         &Deps{httpClient: hc},
		}, nil

	case KindWikipedia:
		ua := cfg.Wikipedia.UserAgent
		if ua == "" {
			ua = wikipedia.DefaultUserAgent
		}
		hc := httpkit.NewClient(
			httpkit.WithTimeout(20*time.Second),
			httpkit.WithUserAgent(ua),
		)
		wk := wikipedia.New(ua, wikipedia.WithHTTPClient(hc))
		wikipedia.RegisterTools(reg, wk)
		return &Agent{
			Kind:         kind,
			SystemPrompt: wikipedia.SystemPrompt,
			Registry:     reg,
			deps:         &Deps{httpClient: hc},
		}, nil

	default:
		return nil, fmt.Errorf("unknown agent kind %v", kind)
	}
}
