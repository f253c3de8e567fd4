// backend/internal/infra/config/config.go
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の環境変数設定を保持します。
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// GCP
	GCPProjectID       string `env:"GCP_PROJECT_ID"`
	FirestoreProjectID string `env:"FIRESTORE_PROJECT_ID"`
	GCPCreds           string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	// Draft Store
	DraftBackend           string `env:"DRAFT_BACKEND" envDefault:"firestore"`
	DatabaseURL            string `env:"DATABASE_URL"`
	EditorDraftsCollection string `env:"EDITOR_DRAFTS_COLLECTION" envDefault:"editorDrafts"`
	CategoriesCollection   string `env:"CATEGORIES_COLLECTION" envDefault:"categories"`
	ProductsCollection     string `env:"PRODUCTS_COLLECTION" envDefault:"products"`

	// 画像アップロード
	ProductImageBucket string `env:"PRODUCT_IMAGE_BUCKET"`
	MaxImageSizeBytes  int64  `env:"MAX_IMAGE_SIZE_BYTES" envDefault:"5242880"`
	UploadConcurrency  int    `env:"UPLOAD_CONCURRENCY" envDefault:"3"`

	DraftSaveDebounce time.Duration `env:"DRAFT_SAVE_DEBOUNCE" envDefault:"400ms"`

	// 商品 API (resource endpoint)
	ProductAPIBaseURL     string        `env:"PRODUCT_API_BASE_URL"`
	ProductAPIToken       string        `env:"PRODUCT_API_TOKEN"`
	ProductAPITokenSecret string        `env:"PRODUCT_API_TOKEN_SECRET"`
	ProductAPITimeout     time.Duration `env:"PRODUCT_API_TIMEOUT" envDefault:"15s"`

	// 公開通知 (任意)
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	SendGridFrom   string `env:"SENDGRID_FROM"`
	ConsoleBaseURL string `env:"CONSOLE_BASE_URL"`

	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"https://console.ekaro.app"`
	AuthRole   string `env:"AUTH_REQUIRED_ROLE" envDefault:"seller"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load は .env (あれば) を読み込んだうえで環境変数から Config を返します。
// .env が無いのは正常 (Cloud Run では環境変数のみ)。
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetFirestoreProjectID は Firestore/GCP プロジェクト ID を返します。
// FIRESTORE_PROJECT_ID が未指定なら GCP_PROJECT_ID を使う。
func (c *Config) GetFirestoreProjectID() string {
	if v := strings.TrimSpace(c.FirestoreProjectID); v != "" {
		return v
	}
	return strings.TrimSpace(c.GCPProjectID)
}

// Firebase / Secret Manager も同じプロジェクト
func (c *Config) GetFirebaseProjectID() string {
	return c.GetFirestoreProjectID()
}
