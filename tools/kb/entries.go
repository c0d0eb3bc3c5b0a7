package kb

// conceptOrder fixes the keyword scan order so lookups are deterministic.
var conceptOrder = []string{
	"transformer",
	"self-attention",
	"bert",
	"tokenization",
}

var entries = map[string]Entry{
	"transformer": {
		Definition: "A neural network architecture built entirely on attention, dispensing with recurrence and convolutions. An encoder-decoder stack of multi-head self-attention and position-wise feed-forward layers.",
		KeyPaper:   "Vaswani et al., Attention Is All You Need",
		Year:       2017,
		Keywords:   []string{"transformer", "transformers", "encoder-decoder", "attention is all you need"},
		Category:   "architecture",
	},
	"self-attention": {
		Definition: "A mechanism relating the positions of a single sequence to compute a representation of that sequence. Each token attends to every other token through query, key and value projections, scaled by the square root of the key dimension.",
		KeyPaper:   "Vaswani et al., Attention Is All You Need",
		Year:       2017,
		Keywords:   []string{"self-attention", "attention", "scaled dot-product attention", "multi-head attention"},
		Category:   "mechanism",
	},
	"bert": {
		Definition: "A bidirectional transformer encoder pretrained with masked language modeling and next sentence prediction, then fine-tuned for downstream NLP tasks.",
		KeyPaper:   "Devlin et al., BERT: Pre-training of Deep Bidirectional Transformers for Language Understanding",
		Year:       2018,
		Keywords:   []string{"bert", "masked language model", "mlm", "bidirectional encoder"},
		Category:   "model",
	},
	"tokenization": {
		Definition: "The process of splitting raw text into units called tokens. Subword schemes such as byte pair encoding and WordPiece balance vocabulary size against coverage of rare words.",
		KeyPaper:   "Sennrich et al., Neural Machine Translation of Rare Words with Subword Units",
		Year:       2016,
		Keywords:   []string{"tokenization", "tokenizer", "tokenize", "subword", "bpe", "wordpiece"},
		Category:   "preprocessing",
	},
}
