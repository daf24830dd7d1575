// Command clipper splits a video file into clips with ffmpeg: it plans the
// cut points, runs one engine invocation per clip, and writes the artifacts,
// thumbnails, and an optional archive to the output directory.
package main
