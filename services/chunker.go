package services

import "docurag-worker/models"

// SplitPages splits page text into overlapping, bounded-size chunks.
// Chunk i+1 begins size-overlap runes after chunk i starts, so no
// content is dropped at chunk boundaries. Chunk indices are 0-based in
// production order across the whole document, and each chunk carries
// its originating page. The output is deterministic for a given input.
func SplitPages(docID string, pages []models.Page, size, overlap int) []models.Chunk {
	if size <= 0 {
		size = 512
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	step := size - overlap

	var chunks []models.Chunk
	for _, page := range pages {
		runes := []rune(page.Text)
		for start := 0; start < len(runes); start += step {
			end := start + size
			if end > len(runes) {
				end = len(runes)
			}
			chunks = append(chunks, models.Chunk{
				Text:       string(runes[start:end]),
				DocID:      docID,
				PageNumber: page.PageNumber,
				ChunkIndex: len(chunks),
			})
			if end == len(runes) {
				break
			}
		}
	}
	return chunks
}
