package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
	"github.com/secmon-lab/nswatch/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Templates holds CLI flags for notice template overrides
type Templates struct {
	path string
}

type templatesFile struct {
	Notices map[string]string `toml:"notices"`
}

func (x *Templates) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "templates",
			Usage:       "Path to a TOML file overriding notice templates per urgency level",
			Category:    "Templates",
			Sources:     cli.EnvVars("NSWATCH_TEMPLATES"),
			Destination: &x.path,
		},
	}
}

// Configure returns the notice templates, applying overrides from the
// configured TOML file when one is given. Levels absent from the file keep
// their built-in text.
func (x *Templates) Configure() (*model.Templates, error) {
	templates := model.DefaultTemplates()
	if x.path == "" {
		return templates, nil
	}

	raw, err := os.ReadFile(x.path)
	if err != nil {
		return nil, goerr.Wrap(ErrConfigNotFound, "failed to read templates file", goerr.V("path", x.path))
	}

	var file templatesFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse templates file", goerr.V("path", x.path))
	}

	for name, text := range file.Notices {
		level, err := types.ParseUrgencyLevel(name)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidConfig, "unknown urgency level in templates file",
				goerr.V("path", x.path), goerr.V("level", name))
		}
		if err := templates.Override(level, text); err != nil {
			return nil, goerr.Wrap(err, "invalid notice template",
				goerr.V("path", x.path), goerr.V("level", name))
		}
	}

	logging.Default().Info("Loaded notice template overrides",
		"path", x.path, "levels", len(file.Notices))
	return templates, nil
}
