package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "model"), 0o755))
	writeFile(t, dir, "user.dic", "나무위키\n")
	path := writeFile(t, dir, "conf.yaml", `
model: model
userDic: user.dic
listenPort: 9000
corsAllowedOrigins:
  - https://example.com
redis:
  addr: localhost:6379
  db: 2
models:
  light:
    model: /srv/models/light
logLevel: debug
`)

	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "model"), conf.Model)
	assert.Equal(t, filepath.Join(dir, "user.dic"), conf.UserDic)
	assert.Equal(t, "", conf.FwdDic)
	assert.Equal(t, 9000, conf.ListenPort)
	assert.Equal(t, []string{"https://example.com"}, conf.CorsAllowedOrigins)
	require.NotNil(t, conf.Redis)
	assert.Equal(t, 2, conf.Redis.DB)
	assert.Equal(t, "/srv/models/light", conf.Models["light"].Model)
	assert.True(t, conf.IsDebugMode())
	assert.Equal(t, path, conf.GetSourcePath())

	models := conf.AllModels()
	assert.Len(t, models, 2)
	assert.Equal(t, conf.ModelConf, models[DefaultModelName])
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, t.TempDir(), "bad.yaml", "listenPort: [1, 2"))
	assert.Error(t, err)
}

func TestValidateAndDefaults(t *testing.T) {
	dir := t.TempDir()
	modelDir := filepath.Join(dir, "model")
	require.NoError(t, os.Mkdir(modelDir, 0o755))
	userDic := writeFile(t, dir, "user.dic", "")
	splitModel := filepath.Join(dir, "komoran.model")
	writeFile(t, dir, "komoran.model_aa", "part")

	tests := []struct {
		name    string
		conf    Conf
		wantErr bool
	}{
		{name: "minimal", conf: Conf{ModelConf: ModelConf{Model: modelDir}}},
		{name: "with dictionary", conf: Conf{ModelConf: ModelConf{Model: modelDir, UserDic: userDic}}},
		{name: "split binary model", conf: Conf{ModelConf: ModelConf{Model: splitModel}}},
		{name: "no model", conf: Conf{}, wantErr: true},
		{name: "missing model", conf: Conf{ModelConf: ModelConf{Model: filepath.Join(dir, "nope")}}, wantErr: true},
		{name: "missing dictionary", conf: Conf{ModelConf: ModelConf{Model: modelDir, FwdDic: filepath.Join(dir, "nope.dic")}}, wantErr: true},
		{name: "dictionary is a directory", conf: Conf{ModelConf: ModelConf{Model: modelDir, FwdDic: modelDir}}, wantErr: true},
		{
			name:    "broken named model",
			conf:    Conf{ModelConf: ModelConf{Model: modelDir}, Models: map[string]ModelConf{"x": {}}},
			wantErr: true,
		},
		{name: "redis without address", conf: Conf{ModelConf: ModelConf{Model: modelDir}, Redis: &RedisConf{}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := tt.conf
			err := ValidateAndDefaults(&conf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, dfltListenPort, conf.ListenPort)
			assert.Equal(t, dfltListenAddress, conf.ListenAddress)
			assert.Equal(t, dfltServerWriteTimeoutSecs, conf.ServerWriteTimeoutSecs)
			assert.Equal(t, "127.0.0.1:8090", conf.Addr())
		})
	}
}

func TestValidateAndDefaults_RedisTTL(t *testing.T) {
	conf := Conf{ModelConf: ModelConf{Model: t.TempDir()}, Redis: &RedisConf{Addr: "localhost:6379"}}
	require.NoError(t, ValidateAndDefaults(&conf))
	assert.Equal(t, dfltCacheTTLSecs, conf.Redis.TTLSecs)
	assert.Equal(t, float64(dfltCacheTTLSecs), conf.Redis.TTL().Seconds())
}
