// Package text turns positioned glyph runs into words and indexes them for
// keyword lookup.
//
// PDF text extractors report text as glyphs or short runs, each with a
// baseline position and advance width. [Merge] joins runs that share a
// baseline and sit close together into a [Word] with a bounding box in page
// space (points, origin bottom-left):
//
//	words := text.Merge(glyphs)
//	idx := text.NewIndex(words)
//	for _, m := range idx.WordsContaining([]string{"TEL", "株式会社"}) {
//		fmt.Println(m.Word.Text, m.Word.Box.Bottom())
//	}
//
// # Width Folding
//
// Japanese flyers mix full-width and half-width forms freely (ＴＥＬ and TEL,
// ｶﾌﾞｼｷ and カブシキ). With [IndexOptions.FoldWidth] the index compares NFKC
// forms of words and keywords, so either form matches. Matches still report
// the word exactly as extracted.
package text
