package webapi

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/steosofficial/koreanmorphy/analyzer"
	"github.com/steosofficial/koreanmorphy/config"
	"github.com/steosofficial/koreanmorphy/model"
)

// Models - the analyzers the server answers with, by name.
type Models struct {
	analyzers map[string]*analyzer.Komoran
	resources []*model.Resources
}

// NewModels wraps already built analyzers. Nothing is closed by Close.
func NewModels(analyzers map[string]*analyzer.Komoran) *Models {
	return &Models{analyzers: analyzers}
}

// LoadModels loads every model of conf. Either all of them load or none.
func LoadModels(conf *config.Conf) (*Models, error) {
	ms := &Models{analyzers: make(map[string]*analyzer.Komoran)}
	for name, mc := range conf.AllModels() {
		k, err := ms.load(mc)
		if err != nil {
			ms.Close()
			return nil, fmt.Errorf("failed to load model %s: %w", name, err)
		}
		ms.analyzers[name] = k
		log.Info().Str("name", name).Str("path", mc.Model).Msg("model loaded")
	}
	return ms, nil
}

func (ms *Models) load(mc config.ModelConf) (*analyzer.Komoran, error) {
	res, err := model.Load(mc.Model)
	if err != nil {
		return nil, err
	}
	ms.resources = append(ms.resources, res)
	k := analyzer.New(res)
	if mc.UserDic != "" {
		if err := k.LoadUserDic(mc.UserDic); err != nil {
			return nil, err
		}
	}
	if mc.FwdDic != "" {
		if err := k.LoadFwdDic(mc.FwdDic); err != nil {
			return nil, err
		}
	}
	return k, nil
}

// Get returns the analyzer registered under name.
func (ms *Models) Get(name string) (*analyzer.Komoran, bool) {
	k, ok := ms.analyzers[name]
	return k, ok
}

// Names returns the sorted model names.
func (ms *Models) Names() []string {
	names := make([]string, 0, len(ms.analyzers))
	for name := range ms.analyzers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases the loaded models.
func (ms *Models) Close() error {
	var result *multierror.Error
	for _, res := range ms.resources {
		if err := res.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	ms.resources = nil
	return result.ErrorOrNil()
}
