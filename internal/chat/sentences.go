package chat

import (
	"bytes"
	"regexp"
	"strings"
)

// ChunksToSentences receives a stream of response chunks and returns a
// stream emitting one chunk per complete sentence. End and error chunks
// flush the buffer and are passed through.
func ChunksToSentences(chunks <-chan ResponseChunk) <-chan ResponseChunk {
	ch := make(chan ResponseChunk)

	go func() {
		defer close(ch)

		var buf bytes.Buffer

		for chunk := range chunks {
			switch chunk.Type {
			case ChunkTypeText:
				buf.WriteString(chunk.Text)

				if sentences := splitIntoSentences(buf.String()); len(sentences) > 1 {
					for _, sentence := range sentences[:len(sentences)-1] {
						ch <- ResponseChunk{
							Type:       ChunkTypeText,
							RequestNum: chunk.RequestNum,
							Text:       sentence,
						}
					}

					buf.Reset()

					lastSentencePrefix := sentences[len(sentences)-1]
					if endsWithPunctuationMark(lastSentencePrefix) {
						ch <- ResponseChunk{
							Type:       ChunkTypeText,
							RequestNum: chunk.RequestNum,
							Text:       lastSentencePrefix,
						}
					} else {
						buf.WriteString(lastSentencePrefix)
					}
				}
			case ChunkTypeEnd:
				if buf.Len() > 0 {
					ch <- ResponseChunk{
						Type:       ChunkTypeText,
						RequestNum: chunk.RequestNum,
						Text:       strings.TrimSuffix(buf.String(), "</s>"),
					}
				}

				buf.Reset()

				ch <- chunk
			case ChunkTypeError:
				// drop the partial sentence of the failed response
				buf.Reset()

				ch <- chunk
			}
		}
	}()

	return ch
}

func endsWithPunctuationMark(s string) bool {
	r := []rune(s)
	if len(r) == 0 {
		return false
	}

	c := r[len(r)-1]

	return c == '.' || c == '?' || c == '!'
}

var endOfSentenceRegex = regexp.MustCompile(`\n\s*|(\.|\?|!)+(\s+|$)`)

// splitIntoSentences splits a given message at punctuation marks, preserving
// whitespaces so that concatenating the sentences reproduces the message.
// Processing a response sentence by sentence reduces the time to the first
// spoken response.
func splitIntoSentences(msg string) []string {
	m := endOfSentenceRegex.FindAllStringIndex(msg, -1)
	sentences := make([]string, len(m))
	pos := 0

	for i, idx := range m {
		sentences[i] = msg[pos:idx[1]]
		pos = idx[1]
	}

	if pos < len(msg) && len(msg[pos:]) > 0 {
		sentences = append(sentences, msg[pos:])
	}

	return sentences
}
