package cmd

import (
	"errors"
	"reflect"
	"testing"

	"github.com/spf13/viper"

	"ragcompare/src/core/rag"
)

func resetConfig(t *testing.T, values map[string]interface{}) {
	t.Helper()
	viper.Reset()
	settingDefaultConfig()
	viper.Set("document.source", "local")
	viper.Set("embedding.provider", "local")
	viper.Set("llm.provider", "ollama")
	viper.Set("index.backend", "memory")
	viper.Set("jobs.transport", "gochannel")
	viper.Set("jobs.store", "memory")
	for k, v := range values {
		viper.Set(k, v)
	}
	t.Cleanup(func() {
		viper.Reset()
		settingDefaultConfig()
	})
}

func TestNewApp(t *testing.T) {
	resetConfig(t, map[string]interface{}{"document.path": "article.md"})

	a, err := newApp()
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	if a.doc.Name() != "article.md" {
		t.Errorf("doc.Name() = %q, want %q", a.doc.Name(), "article.md")
	}
	if a.pipeline.ContextMode() != rag.ContextDocument {
		t.Errorf("ContextMode() = %q, want %q", a.pipeline.ContextMode(), rag.ContextDocument)
	}
}

func TestNewAppConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]interface{}
	}{
		{"groq without api key", map[string]interface{}{"llm.provider": "groq", "llm.api_key": ""}},
		{"unknown llm provider", map[string]interface{}{"llm.provider": "gpt"}},
		{"unknown embedding provider", map[string]interface{}{"embedding.provider": "bert"}},
		{"zero local dimensions", map[string]interface{}{"embedding.dimensions": 0}},
		{"unknown backend", map[string]interface{}{"index.backend": "faiss"}},
		{"unknown document source", map[string]interface{}{"document.source": "s3"}},
		{"minio path without object", map[string]interface{}{"document.source": "minio", "document.path": "/bucket-only"}},
		{"unknown context mode", map[string]interface{}{"rag.context_mode": "summary"}},
		{"bad llm timeout", map[string]interface{}{"llm.timeout": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetConfig(t, tt.values)
			_, err := newApp()
			if !errors.Is(err, rag.ErrConfiguration) {
				t.Errorf("newApp() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestMinioLocation(t *testing.T) {
	tests := []struct {
		path       string
		wantBucket string
		wantObject string
	}{
		{"article.pdf", "documents", "article.pdf"},
		{"/papers/quantum/article.pdf", "papers", "quantum/article.pdf"},
	}
	for _, tt := range tests {
		resetConfig(t, map[string]interface{}{"document.path": tt.path})
		bucket, object, err := minioLocation()
		if err != nil {
			t.Fatalf("minioLocation(%q) error = %v", tt.path, err)
		}
		if bucket != tt.wantBucket || object != tt.wantObject {
			t.Errorf("minioLocation(%q) = %q, %q, want %q, %q", tt.path, bucket, object, tt.wantBucket, tt.wantObject)
		}
	}
}

func TestElasticsearchAddresses(t *testing.T) {
	resetConfig(t, map[string]interface{}{"elasticsearch.addresses": "http://es1:9200, http://es2:9200"})
	want := []string{"http://es1:9200", "http://es2:9200"}
	if got := elasticsearchAddresses(); !reflect.DeepEqual(got, want) {
		t.Errorf("elasticsearchAddresses() = %v, want %v", got, want)
	}
}

func TestNewJobRuntime(t *testing.T) {
	resetConfig(t, nil)
	a, err := newApp()
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}

	rt, err := newJobRuntime(a.pipeline, false)
	if err != nil {
		t.Fatalf("newJobRuntime() error = %v", err)
	}
	defer rt.Close()
	if rt.subscriber == nil {
		t.Errorf("gochannel runtime has no subscriber")
	}
	if _, err := rt.router(); err != nil {
		t.Errorf("router() error = %v", err)
	}
}

func TestNewJobRuntimeConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]interface{}
	}{
		{"amqp with memory store", map[string]interface{}{"jobs.transport": "amqp"}},
		{"unknown transport", map[string]interface{}{"jobs.transport": "kafka"}},
		{"unknown store", map[string]interface{}{"jobs.store": "redis"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetConfig(t, tt.values)
			_, err := newJobRuntime(nil, false)
			if !errors.Is(err, rag.ErrConfiguration) {
				t.Errorf("newJobRuntime() error = %v, want ErrConfiguration", err)
			}
		})
	}
}
