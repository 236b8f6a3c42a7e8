// Package utils hosts the CLI plumbing shared by gitagg commands.
//
// ConfigurationLoader layers embedded defaults, an optional settings file, and
// GITAGG_ environment overrides through Viper. LoggerFactory builds the zap
// loggers for the structured and console output formats.
package utils
