package service

import (
	"fmt"
	"strings"

	"neuralflux/internal/model"
)

// builtinQuestions is the last-resort request pool used when neither the
// oracle nor the question bank can supply a request.
var builtinQuestions = map[model.Category][]string{
	model.CategoryFact: {
		"What causes the seasons to change on Earth?",
		"How does a vaccine teach the immune system to fight a virus?",
		"Why do some countries drive on the left side of the road?",
		"What is the difference between weather and climate?",
		"How do noise-cancelling headphones actually work?",
	},
	model.CategoryMath: {
		"If I save $250 a month at 4% annual interest, how much will I have after five years?",
		"Can you explain how to find the area of a triangle when I only know its three sides?",
		"What is the probability of rolling at least one six with four dice?",
		"How do I convert a recipe that serves 6 into one that serves 15?",
		"Why does dividing by zero not give a number?",
	},
	model.CategoryCreative: {
		"Can you write a short poem about a lighthouse keeper who has never seen the sea in daylight?",
		"Give me three names for a cozy bookshop cafe that also sells plants.",
		"Write the opening paragraph of a mystery set on a night train through the Alps.",
		"Can you help me come up with a toast for my sister's wedding that is funny but not embarrassing?",
		"Describe a city where it rains upward, as if you were a travel guide.",
	},
	model.CategoryEmotional: {
		"I just got rejected from my dream job and I feel like a failure. How do I move on?",
		"My best friend has been distant for weeks and I don't know how to bring it up. Any advice?",
		"How can I support my dad after he retired and now seems lost without work?",
		"I keep procrastinating and then hating myself for it. How do I break the cycle?",
		"I'm moving to a new city alone next month and I'm scared of being lonely. What should I do?",
	},
}

// BuiltinQuestions returns the built-in pool as bank entries for seeding
func BuiltinQuestions() []model.BankQuestion {
	var out []model.BankQuestion
	for _, c := range model.Categories {
		for i, text := range builtinQuestions[c] {
			out = append(out, model.BankQuestion{
				ID:         fmt.Sprintf("builtin-%s-%d", strings.ToLower(string(c)), i),
				Category:   c,
				Difficulty: i%model.MaxDifficulty + 1,
				Text:       text,
			})
		}
	}
	return out
}

// offlineExemplar builds a formal template answer so the heuristic scorer
// has a length and tone baseline without the oracle.
func offlineExemplar(question string, difficulty int) string {
	var b strings.Builder
	b.WriteString("Thank you for your question. ")
	fmt.Fprintf(&b, "Regarding \"%s\", the most effective approach is to begin with the essential facts and then apply them to your specific situation. ", shorten(strings.TrimSpace(question), 80))
	b.WriteString("Furthermore, it is helpful to break the problem into smaller, manageable steps and address each one systematically. ")
	if difficulty >= 3 {
		b.WriteString("Additionally, consider the context surrounding your request, since constraints such as time, resources and personal priorities can change which option is most appropriate. ")
	}
	if difficulty >= 4 {
		b.WriteString("Moreover, there are several valid perspectives here; comparing a cautious approach with a more ambitious one will help you decide with confidence. ")
	}
	b.WriteString("Therefore, a clear plan combined with consistent follow-through will give you the most reliable result.")
	return b.String()
}
