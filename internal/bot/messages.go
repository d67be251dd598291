package bot

import "fmt"

const (
	msgGreeting = "👋 Привет! Спасибо за заявку в чат выпускников 30ки.\n\n" +
		"Для доступа в чат необходимо подтвердить, что ты выпускник 30ки.\n\n" +
		"Отправь мне твою фамилию и имя:"

	msgAskNameAgain  = "Пожалуйста, введи имя и фамилию (например: Иван Петров):"
	msgAskYear       = "Отлично! Теперь введи год окончания школы (например: 2015):"
	msgAskYearAgain  = "Пожалуйста, введи корректный год (например: 2015):"
	msgAskClass      = "Хорошо! Теперь введи номер класса (1-11):"
	msgAskClassAgain = "Пожалуйста, введи корректный номер класса (1-11):"

	msgCancelled = "Ввод данных отменён. Отправь /start, чтобы начать заново."

	msgInstruction = "К сожалению, я тебя не понял, давай попробуем ещё раз. " +
		"Напиши мне ФИ, год и класс, или /start.\n\n" +
		"Связаться с администратором: /admin"

	msgIncompleteData = "Неполные данные!\n\n" +
		"Ты можешь отправить данные в любом из форматов:\n\n" +
		"1️⃣ Одной строкой: Федоров Сергей 2010 2\n\n" +
		"2️⃣ С двоеточиями:\nФИО: Ваше Имя Фамилия\nГод: 2015\nКласс: 3\n\n" +
		"3️⃣ Или отправь /start для пошагового ввода"

	msgEscalated = "Администратор чата в скором времени с вами свяжется."

	msgDeclinedIncompleteBio = "Заявка отклонена, так как указаны неполные данные. " +
		"Пожалуйста, напиши боту в личные сообщения для подтверждения."

	msgFixProfile = "❌ В вашем имени, фамилии или никнейме обнаружены некорректные слова.\n\n" +
		"Пожалуйста, измените свои данные в настройках Telegram и попробуйте снова."

	btnContactAdmin      = "Связаться с админом"
	callbackContactAdmin = "admin_help"
)

func successMessage(operator string) string {
	return "✅ Рады знакомству! Скоро твою заявку одобрят.\n\n" +
		"Рекомендуем опубликовать в чате инфо о себе (год выпуска, чем занимаешься и т.п.) с тегом #ктоя\n\n" +
		fmt.Sprintf("Админ чата Сергей Федоров, 1983-2, %s. ", operator) +
		"Если будут вопросы по Клубу, Фонду30, сайту <a href=\"https://30ka.ru\">30ka.ru</a>, чату, школе - не стесняйся их задавать!"
}

func notFoundMessage(a Attempt) string {
	return fmt.Sprintf(
		"К сожалению, мы не нашли тебя в базе данных.\n\n"+
			"Проверь правильность введённых данных:\nФИО: %s\nГод: %d\nКласс: %d\n"+
			"Для исправления данных снова нажми /start\n\n"+
			"Если данные верные, нажми кнопку — мы обязательно разберёмся!",
		a.Name, a.Year, a.Class)
}

func dispatchErrorMessage(operator string) string {
	return fmt.Sprintf(
		"Произошла ошибка при одобрении заявки. Пожалуйста, попробуй позже или напиши администратору %s.",
		operator)
}
