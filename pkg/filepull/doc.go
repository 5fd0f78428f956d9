// Package filepull implements the File Puller: chunked remote-file fetch
// with a digest-check hook and temp-dir staging, plus the rehoming of a pulled
// file into the local storage engine. The chunked transfer loop advances
// its offset by the number of bytes actually written to the destination
// file, not by the backing buffer's capacity, since advancing by capacity
// would silently skip bytes on a short write. An interrupted transfer is not
// resumed: every pull truncates the destination and starts at offset 0.
package filepull
