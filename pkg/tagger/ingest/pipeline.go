package ingest

// Pipeline orchestrates one annotation request:
// text → tokenization → n-gram lookup
type Pipeline struct {
	tokenizer *Tokenizer
	matcher   *Matcher
}

// NewPipeline creates a pipeline with the given components
func NewPipeline(tokenizer *Tokenizer, matcher *Matcher) *Pipeline {
	return &Pipeline{
		tokenizer: tokenizer,
		matcher:   matcher,
	}
}

// ProcessedText holds the intermediate results of one request
type ProcessedText struct {
	Tokens     []Token
	Candidates []Candidate
}

// Process runs text through the pipeline against one vocabulary
func (p *Pipeline) Process(text, vocabulary string) ProcessedText {
	tokens := p.tokenizer.Tokenize(text)
	return ProcessedText{
		Tokens:     tokens,
		Candidates: p.matcher.Match(text, tokens, vocabulary),
	}
}
