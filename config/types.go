package config

type Config struct {
	Server Server
	Store  Store
	Admin  Admin
	Log    Log
	Sentry Sentry
}

type Server struct {
	Addr string `mapstructure:"addr"`
	// Signs session cookies. Empty means a random key per process, so a restart logs everyone out.
	SessionSecret string `mapstructure:"session_secret"`
}

type Store struct {
	Type      string `mapstructure:"type"`
	KeyPrefix string `mapstructure:"key_prefix"`
	Bolt      Bolt
	SQLite    SQLite
	Postgres  Postgres
	Redis     Redis
	Firestore Firestore
}

type Bolt struct {
	Path string `mapstructure:"path"`
}

type SQLite struct {
	ConnectionString string `mapstructure:"connection_string"`
}

type Postgres struct {
	URL string `mapstructure:"url"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Firestore struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	CollectionID    string `mapstructure:"collection_id"`
}

// Admin is the single administrator credential. An empty password disables admin login.
type Admin struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Sentry struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}
