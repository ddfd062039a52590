package dialog

// DefaultRules is the small-talk table shipped with the client.
var DefaultRules = []Rule{
	{
		Name: "greeting",
		Keywords: []string{
			"привет", "приветствую", "здравствуй", "здравствуйте", "добрый день",
			"добрый вечер", "доброе утро", "хай", "hi", "hello",
		},
		Replies: []string{
			"Здравствуйте! Задайте вопрос, и я постараюсь помочь.",
			"Привет! Что вас интересует?",
			"Добрый день! Чем могу помочь?",
		},
	},
	{
		Name: "thanks",
		Keywords: []string{
			"спасибо", "спс", "благодарю", "спасибо!", "thanks", "thank you",
		},
		Replies: []string{
			"Пожалуйста!",
			"Рад был помочь!",
			"Обращайтесь!",
		},
	},
	{
		Name: "goodbye",
		Keywords: []string{
			"пока", "до свидания", "до встречи", "всего доброго", "bye",
		},
		Replies: []string{
			"До свидания! Возвращайтесь, если появятся вопросы.",
			"Всего доброго!",
			"Пока! Хорошего дня.",
		},
	},
}
