package config

// DB holds the database configuration settings.
// GormEngine selects the driver: "mysql", "postgres" or "sqlite".
// For sqlite only Name is used (the database file path).
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	GormEngine string
}
