// Package services implements the driving ports.
//
// MigrationService runs one backup through decode, the identifier
// rewrite in MigrationEngine and encode. SettingsService and
// MappingService back the settings and mapping commands.
package services
