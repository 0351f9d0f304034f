// Package compress provides compression codecs for point batch payloads
// crossing the worker boundary.
//
// Batch payloads are dense little-endian float data, which compresses
// modestly but quickly with the byte-oriented algorithms offered here. The
// codecs are selected by format.CompressionType:
//
//   - CompressionNone: bypass, for same-process channels where the payload
//     moves by ownership transfer anyway.
//   - CompressionS2: best speed/ratio trade-off for realtime batches, the
//     recommended choice when the boundary is a socket or shared pipe.
//   - CompressionLZ4: fastest decompression.
//   - CompressionZstd: best ratio, for recording or replaying batch streams.
//
// All codecs are stateless values and safe for concurrent use; internal
// encoder/decoder state is pooled.
package compress
