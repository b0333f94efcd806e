package res

// AboutContent contains the Markdown content for the About dialog.
// This is maintained separately for easy updates.
const AboutContent = `Audio demos with an animated equalizer, built with Go and Fyne.

**Demos:**
- Audio element: plays a file at once, click the bars to seek
- Buffer source: full transport controls over a decoded clip
- Equalizer: bars of a playing file
- Audio stream: waveform of raw PCM from standard input

**Formats:** WAV, AIFF, MP3 and Ogg Vorbis, from disk or http(s).
`
