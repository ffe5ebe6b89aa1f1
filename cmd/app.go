package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	"ragcompare/src/core/document"
	"ragcompare/src/core/embedding"
	"ragcompare/src/core/index"
	"ragcompare/src/core/pipeline"
	"ragcompare/src/core/rag"
	"ragcompare/src/fsutil"
	"ragcompare/src/infrastructure/integrations/groq"
	"ragcompare/src/infrastructure/integrations/ollama"
	"ragcompare/src/log"
	"ragcompare/src/storage/elasticsearch"
	"ragcompare/src/storage/minioctrl"
	"ragcompare/src/storage/weaviate"
)

// app holds the components every command shares.
type app struct {
	doc      *document.Store
	pipeline *pipeline.Pipeline
}

func configError(format string, args ...interface{}) error {
	return &rag.Error{Kind: rag.ErrConfiguration, Err: fmt.Errorf(format, args...)}
}

// newApp wires the document source, embedder, generator and index backend from configuration.
// Nothing is loaded or built yet.
func newApp() (*app, error) {
	source, err := newDocumentSource()
	if err != nil {
		return nil, err
	}
	doc := document.NewStore(source)

	timeout, err := time.ParseDuration(viper.GetString("llm.timeout"))
	if err != nil {
		return nil, configError("invalid llm.timeout %q: %v", viper.GetString("llm.timeout"), err)
	}
	httpClient := &http.Client{Timeout: timeout}
	ollamaClient := ollama.NewClient(viper.GetString("ollama.url"), httpClient)

	embedder, err := newEmbedder(ollamaClient)
	if err != nil {
		return nil, err
	}
	generator, err := newGenerator(ollamaClient, httpClient)
	if err != nil {
		return nil, err
	}
	backend, err := newIndexBackend(embedder)
	if err != nil {
		return nil, err
	}

	mode, err := rag.ParseContextMode(viper.GetString("rag.context_mode"))
	if err != nil {
		return nil, err
	}

	p := pipeline.New(doc, backend, generator,
		pipeline.WithTopK(viper.GetInt("index.top_k")),
		pipeline.WithPreviewLength(viper.GetInt("rag.preview_length")),
		pipeline.WithContextMode(mode),
		pipeline.WithBuildConcurrency(viper.GetInt("index.build_concurrency")),
	)

	log.Info("pipeline configured",
		"document", doc.Name(),
		"llm", viper.GetString("llm.provider"),
		"embedding", viper.GetString("embedding.provider"),
		"backend", viper.GetString("index.backend"),
		"context_mode", mode)
	return &app{doc: doc, pipeline: p}, nil
}

// buildIndexes builds every index and fails only when the document itself cannot be loaded.
func (a *app) buildIndexes(ctx context.Context) error {
	report, err := a.pipeline.BuildIndexes(ctx)
	if err != nil {
		return fmt.Errorf("failed to build indices: %w", err)
	}
	for strategy, msg := range report.Failures {
		log.Info("strategy unavailable", "strategy", strategy, "error", msg)
	}
	return nil
}

// close releases the indices this process built. Remote backends drop their storage.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	a.pipeline.Close(ctx)
}

func newMinioService() (*minioctrl.MinioService, error) {
	svc, err := minioctrl.NewMinioService(
		viper.GetString("minio.endpoint"),
		viper.GetString("minio.access_key"),
		viper.GetString("minio.secret_key"),
		viper.GetBool("minio.use_ssl"),
	)
	if err != nil {
		return nil, configError("failed to initialize minio service: %v", err)
	}
	return svc, nil
}

// minioLocation resolves document.path to a bucket and object. A path starting with "/" names
// the bucket itself, anything else is an object in minio.bucket.
func minioLocation() (string, string, error) {
	path := viper.GetString("document.path")
	if !strings.HasPrefix(path, "/") {
		return viper.GetString("minio.bucket"), path, nil
	}
	bucket, object := minioctrl.SplitObjectPath(path)
	if bucket == "" {
		return "", "", configError("document.path %q does not name a bucket and object", path)
	}
	return bucket, object, nil
}

func newDocumentSource() (document.Source, error) {
	switch viper.GetString("document.source") {
	case "local":
		return document.NewLocalSource(fsutil.NewLocalFileStore(), viper.GetString("document.path")), nil
	case "minio":
		svc, err := newMinioService()
		if err != nil {
			return nil, err
		}
		bucket, object, err := minioLocation()
		if err != nil {
			return nil, err
		}
		return minioctrl.NewObjectSource(svc, bucket, object), nil
	default:
		return nil, configError("unknown document.source %q", viper.GetString("document.source"))
	}
}

func newEmbedder(client *ollama.Client) (rag.Embedder, error) {
	switch viper.GetString("embedding.provider") {
	case "ollama":
		return ollama.NewEmbedder(client, viper.GetString("embedding.model")), nil
	case "local":
		dims := viper.GetInt("embedding.dimensions")
		if dims <= 0 {
			return nil, configError("embedding.dimensions must be positive, got %d", dims)
		}
		return embedding.NewHashing(dims), nil
	default:
		return nil, configError("unknown embedding.provider %q", viper.GetString("embedding.provider"))
	}
}

func newGenerator(client *ollama.Client, httpClient *http.Client) (rag.Generator, error) {
	switch viper.GetString("llm.provider") {
	case "groq":
		g, err := groq.NewGenerator(groq.Config{
			APIKey:      viper.GetString("llm.api_key"),
			BaseURL:     viper.GetString("llm.base_url"),
			Model:       viper.GetString("llm.model"),
			Temperature: viper.GetFloat64("llm.temperature"),
			MaxRetries:  viper.GetInt("llm.max_retries"),
			HTTPClient:  httpClient,
		})
		if err != nil {
			return nil, rag.Wrap(rag.ErrConfiguration, "", err)
		}
		return g, nil
	case "ollama":
		return ollama.NewGenerator(client, viper.GetString("llm.model"), viper.GetFloat64("llm.temperature")), nil
	default:
		return nil, configError("unknown llm.provider %q", viper.GetString("llm.provider"))
	}
}

func newIndexBackend(embedder rag.Embedder) (rag.IndexBackend, error) {
	switch viper.GetString("index.backend") {
	case "memory":
		return index.NewMemoryBackend(embedder), nil
	case "weaviate":
		client, err := weaviate.NewClient(viper.GetString("weaviate.url"), viper.GetString("weaviate.scheme"))
		if err != nil {
			return nil, rag.Wrap(rag.ErrConfiguration, "", err)
		}
		return weaviate.NewBackend(weaviate.NewSDK(client), embedder), nil
	case "elasticsearch":
		client, err := elasticsearch.NewClient(elasticsearchAddresses(), nil)
		if err != nil {
			return nil, rag.Wrap(rag.ErrConfiguration, "", err)
		}
		return elasticsearch.NewBackend(client, embedder), nil
	default:
		return nil, configError("unknown index.backend %q", viper.GetString("index.backend"))
	}
}

// elasticsearchAddresses accepts a list from a config file or a comma separated env value.
func elasticsearchAddresses() []string {
	var out []string
	for _, a := range viper.GetStringSlice("elasticsearch.addresses") {
		for _, part := range strings.Split(a, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
