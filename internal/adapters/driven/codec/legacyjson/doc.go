// Package legacyjson implements the codec for legacy JSON backups.
//
// Decoding records the byte span of every URL it reads. Encoding splices new
// URL values into those spans, so the rest of the document, including its
// whitespace, is written back exactly as it was read.
package legacyjson
