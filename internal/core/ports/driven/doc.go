// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - IdentifierResolver: Translates legacy numeric ids to new ids
//   - DocumentCodec: Decodes and encodes one backup wire format
//   - CodecRegistry: Selects the codec for an input file name
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - BatchResolver: Resolvers that prefer one bulk pre-pass over point lookups
//   - MappingStore: Writable mapping storage for the import command
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
