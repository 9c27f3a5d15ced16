package textprep

var stopwords = map[string]struct{}{}

func init() {
	words := []string{
		"the", "and", "for", "are", "but", "not", "you", "all", "can", "had",
		"her", "was", "one", "our", "out", "day", "get", "has", "him", "his",
		"how", "man", "new", "now", "old", "see", "two", "way", "who", "its",
		"did", "got", "let", "put", "say", "she", "too", "use", "that", "with",
		"have", "this", "will", "your", "from", "they", "know", "want", "been",
		"good", "much", "some", "time", "very", "when", "come", "here", "just",
		"like", "long", "make", "many", "more", "only", "over", "such", "take",
		"than", "them", "well", "were", "what", "into", "then", "also", "after",
		"about", "could", "there", "these", "their", "would", "which", "while",
		"where", "being", "every", "other", "should", "because", "before",
		"between", "through", "during", "under", "again", "further", "once",
		"doing", "does", "each", "having", "against", "above", "below", "down",
		"most", "both", "same", "until", "himself", "herself", "itself",
		"myself", "yourself", "ourselves", "themselves", "those", "whom",
		"whose", "why", "any", "few", "nor", "off", "own", "so", "no", "yes",
		"i'm", "it's", "don't", "can't", "didn't", "doesn't", "won't", "isn't",
		"wasn't", "aren't", "i've", "you're", "they're", "we're", "i'll",
	}

	for _, w := range words {
		stopwords[w] = struct{}{}
	}
}
