// Package audio runs preview playback through an external command such as ffplay.
package audio
