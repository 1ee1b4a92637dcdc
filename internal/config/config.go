package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Address            string   `yaml:"address"`
	LogLevel           string   `yaml:"log_level"`
	LogJSON            bool     `yaml:"log_json"`
	SecureCookies      bool     `yaml:"secure_cookies"`
	CorsAllowedOrigins []string `yaml:"cors_allowed_origins"`

	ThreadsPerPage int `yaml:"threads_per_page"`
	SearchPageSize int `yaml:"search_page_size"`

	// DefaultBumpLimit seeds new categories; each thread copies its
	// category's limit at creation.
	DefaultBumpLimit int `yaml:"default_bump_limit"`

	MaxAttachmentsCountPerPost int   `yaml:"max_attachments_count_per_post"`
	MaxAttachmentsBytesPerPost int64 `yaml:"max_attachments_bytes_per_post"`

	AudioExtensions    []string `yaml:"audio_extensions"`
	PictureExtensions  []string `yaml:"picture_extensions"`
	VideoExtensions    []string `yaml:"video_extensions"`
	DocumentExtensions []string `yaml:"document_extensions"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

// Moderator credentials live in the private config; passwords are bcrypt
// hashes, never plaintext.
type Moderator struct {
	Login        string `yaml:"login"`
	PasswordHash string `yaml:"password_hash"`
}

type Private struct {
	Pg         Pg            `yaml:"pg"`
	JwtKey     string        `yaml:"jwt_key"`
	JwtTTL     time.Duration `yaml:"jwt_ttl"`
	HashPepper string        `yaml:"hash_pepper"`
	Moderators []Moderator   `yaml:"moderators"`
}

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Private.JwtTTL
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.applyDefaults()
	return cfg
}

func (s *Config) applyDefaults() {
	if s.Public.Address == "" {
		s.Public.Address = ":8080"
	}
	if s.Public.ThreadsPerPage == 0 {
		s.Public.ThreadsPerPage = 10
	}
	if s.Public.SearchPageSize == 0 {
		s.Public.SearchPageSize = 10
	}
	if s.Public.DefaultBumpLimit == 0 {
		s.Public.DefaultBumpLimit = 500
	}
	if s.Public.MaxAttachmentsCountPerPost == 0 {
		s.Public.MaxAttachmentsCountPerPost = 10
	}
	if s.Public.MaxAttachmentsBytesPerPost == 0 {
		s.Public.MaxAttachmentsBytesPerPost = 20000000
	}
	if s.Public.AudioExtensions == nil {
		s.Public.AudioExtensions = []string{"mp3", "ogg", "aac"}
	}
	if s.Public.PictureExtensions == nil {
		s.Public.PictureExtensions = []string{"jpg", "jpeg", "png", "gif", "svg", "webp"}
	}
	if s.Public.VideoExtensions == nil {
		s.Public.VideoExtensions = []string{"webm", "mp4"}
	}
	if s.Public.DocumentExtensions == nil {
		s.Public.DocumentExtensions = []string{"pdf", "txt", "zip"}
	}
	if s.Private.JwtTTL == 0 {
		s.Private.JwtTTL = 24 * time.Hour
	}
}
