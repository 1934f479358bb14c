package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/transcriptdb/core"
	"github.com/poiesic/transcriptdb/ingestion"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "ipcs", cfg.Store.Pinecone.IndexName)
	assert.Equal(t, "data/transcripts", cfg.Ingest.Dir)
	assert.Equal(t, core.DefaultNamespace, cfg.Ingest.Namespace)
	assert.Equal(t, 50, cfg.Ingest.BatchSize)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
store:
  type: badger
  badger:
    path: /tmp/vectors
ingest:
  namespace: interviews
  batch_size: 10
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoreBadger, cfg.Store.Type)
	assert.Equal(t, "/tmp/vectors", cfg.Store.Badger.Path)
	assert.Equal(t, "interviews", cfg.Ingest.Namespace)
	assert.Equal(t, 10, cfg.Ingest.BatchSize)
	assert.Equal(t, "debug", cfg.LogLevel)

	// untouched sections keep defaults
	assert.Equal(t, "*.pdf", cfg.Ingest.Pattern)
	assert.Equal(t, "OPENAI_API_KEY", cfg.AI.APIKeyEnv)
	assert.Equal(t, "ipcs", cfg.Store.Pinecone.IndexName)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Ingest.Namespace = "round-trip"
	cfg.Lock.Type = LockRedis
	cfg.Lock.RedisAddr = "localhost:6379"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envMap(map[string]string{
		"PINECONE_INDEX_NAME": "interviews-2025",
		"PINECONE_INDEX_HOST": "interviews-abc.svc.pinecone.io",
		"REDIS_ADDR":          "redis:6379",
	}))

	assert.Equal(t, "interviews-2025", cfg.Store.Pinecone.IndexName)
	assert.Equal(t, "interviews-abc.svc.pinecone.io", cfg.Store.Pinecone.Host)
	assert.Equal(t, LockRedis, cfg.Lock.Type)
	assert.Equal(t, "redis:6379", cfg.Lock.RedisAddr)
}

func TestApplyEnv_EmptyLeavesValues(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envMap(nil))
	assert.Equal(t, Default(), cfg)
}

func TestAIServiceConfig(t *testing.T) {
	cfg := Default()
	cfg.AI.Host = "http://localhost:11434"
	cfg.AI.EmbeddingHost = "http://localhost:8080/v1"
	cfg.AI.RequestsPerSecond = 5

	aiCfg, err := cfg.AIServiceConfig(envMap(map[string]string{"OPENAI_API_KEY": "sk-test"}))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", aiCfg.APIKey)
	assert.Equal(t, "http://localhost:8080/v1", aiCfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", aiCfg.ClassifierHost)
	assert.Equal(t, 3072, aiCfg.EmbeddingDimension)
	assert.Equal(t, 5.0, aiCfg.RequestsPerSecond)
}

func TestAIServiceConfig_MissingKeyNamesVariable(t *testing.T) {
	cfg := Default()
	_, err := cfg.AIServiceConfig(envMap(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestPineconeStoreConfig(t *testing.T) {
	cfg := Default()
	cfg.Store.Pinecone.TimeoutSecs = 5

	pc, err := cfg.PineconeStoreConfig(envMap(map[string]string{"PINECONE_API_KEY": "pc-test"}))
	require.NoError(t, err)
	assert.Equal(t, "pc-test", pc.APIKey)
	assert.Equal(t, "ipcs", pc.IndexName)
	assert.Equal(t, 5*time.Second, pc.Timeout)
}

func TestPineconeStoreConfig_MissingKeyNamesVariable(t *testing.T) {
	cfg := Default()
	_, err := cfg.PineconeStoreConfig(envMap(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PINECONE_API_KEY")
}

func TestIngestionConfig(t *testing.T) {
	cfg := Default()
	cfg.Ingest.Namespace = "batch-7"
	cfg.Ingest.IDStrategy = "source"
	cfg.Ingest.DocumentWorkers = 2

	ic, err := cfg.IngestionConfig()
	require.NoError(t, err)
	assert.Equal(t, "batch-7", ic.Namespace)
	assert.Equal(t, ingestion.IDStrategySource, ic.IDStrategy)
	assert.Equal(t, 2, ic.DocumentWorkers)
	assert.Equal(t, ingestion.DefaultConfig().CleaningChunkSize, ic.CleaningChunkSize)
}

func TestIngestionConfig_Invalid(t *testing.T) {
	cfg := Default()
	cfg.Ingest.IDStrategy = "sequential"
	_, err := cfg.IngestionConfig()
	require.Error(t, err)

	cfg = Default()
	cfg.Ingest.BatchSize = 0
	_, err = cfg.IngestionConfig()
	require.ErrorIs(t, err, ingestion.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	cfg := Default()
	cfg.Store.Type = "qdrant"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Lock.Type = LockRedis
	assert.Error(t, cfg.Validate())
	cfg.Lock.RedisAddr = "localhost:6379"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Lock.Type = "etcd"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Store.Type = StoreBadger
	cfg.Store.Badger.Path = ""
	assert.Error(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TRANSCRIPTDB_TEST_DOTENV=loaded\n"), 0o644))
	t.Setenv("TRANSCRIPTDB_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("TRANSCRIPTDB_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("TRANSCRIPTDB_TEST_DOTENV"))
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TRANSCRIPTDB_TEST_KEEP=file\n"), 0o644))
	t.Setenv("TRANSCRIPTDB_TEST_KEEP", "shell")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "shell", os.Getenv("TRANSCRIPTDB_TEST_KEEP"))
}
