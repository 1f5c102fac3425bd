// Package main provides the entry point for the role-based access control
// administration service. It initializes and runs a web server using the
// Fiber framework that exposes a REST API for managing users, roles and
// permissions, plus a natural-language command endpoint that lets
// administrators change policy in plain English. The application uses gorm
// for data persistence.
package main
