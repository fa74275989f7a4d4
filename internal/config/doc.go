// Package config defines deletia's configuration and its validation.
package config
