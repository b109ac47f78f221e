package config

// Task names shared by the configuration and the task registry.
const (
	TaskNudgeSweep     = "nudge_sweep"
	TaskSQLMaintenance = "sql_maintenance"
)

var defaultRegions = []map[string]any{
	{"label": "Калининград", "timezone": "Europe/Kaliningrad"},
	{"label": "Москва", "timezone": "Europe/Moscow"},
	{"label": "Самара", "timezone": "Europe/Samara"},
	{"label": "Екатеринбург", "timezone": "Asia/Yekaterinburg"},
	{"label": "Омск", "timezone": "Asia/Omsk"},
	{"label": "Новосибирск", "timezone": "Asia/Novosibirsk"},
	{"label": "Красноярск", "timezone": "Asia/Krasnoyarsk"},
	{"label": "Иркутск", "timezone": "Asia/Irkutsk"},
	{"label": "Якутск", "timezone": "Asia/Yakutsk"},
	{"label": "Владивосток", "timezone": "Asia/Vladivostok"},
	{"label": "Магадан", "timezone": "Asia/Magadan"},
	{"label": "Камчатка", "timezone": "Asia/Kamchatka"},
}

var defaultQuestions = []string{
	"1) Что за сегодняшний день Вы сделали хорошо?",
	"2) Что люди вокруг Вас сделали такого, за что Вы им благодарны (неважно, сделали они это по отношению к Вам или нет)? Кому Вы за это благодарны?",
	"3) Что Вы в течение сегодняшнего дня видели, слышали, пробовали на вкус, осязали, обоняли, что наполняет Вас благодарностью к миру / что принесло Вам удовлетворение?",
	"4) Какие мелочи порадовали / повеселили Вас сегодня?",
}

var defaultCommands = []map[string]any{
	{"command": "start", "description": "Запустить бота и выбрать время"},
	{"command": "change_time", "description": "Сменить время ежедневных вопросов"},
	{"command": "skip", "description": "Пропустить сегодняшние вопросы"},
	{"command": "stop", "description": "Остановить ежедневные вопросы"},
	{"command": "help", "description": "Как пользоваться ботом"},
}

var defaults = map[string]any{
	"logger.level": "info",
	"logger.json":  false,

	"database.path": "storage.db",

	"telegram.token":    "",
	"telegram.commands": defaultCommands,

	"session.default_timezone": "Europe/Moscow",
	"session.regions":          defaultRegions,
	"session.time_presets":     []string{"20:00", "21:00", "22:00"},
	"session.questions":        defaultQuestions,

	"nudge.enabled":         true,
	"nudge.hour":            9,
	"nudge.minute":          0,
	"nudge.inactivity_days": 7,
	"nudge.cooldown_days":   7,
	"nudge.concurrency":     4,

	"scheduler.tasks": map[string]any{
		TaskSQLMaintenance: map[string]any{"enabled": true, "schedule": "0 4 * * 0"},
	},

	"state.backend":    "sqlite",
	"state.redis_addr": "",

	"gemini.enabled":             false,
	"gemini.api_key":             "",
	"gemini.model_name":          "gemini-2.0-flash",
	"gemini.temperature":         1.0,
	"gemini.max_retries":         2,
	"gemini.retry_delay_seconds": 2,
	"gemini.system_instruction": "Ты пишешь короткое тёплое сообщение на русском языке человеку, который давно не отвечал " +
		"на ежедневные вопросы о хорошем за день. Без упрёков и давления, одно-два предложения, " +
		"можно один эмодзи. Напомни, что можно нажать «▶️ Запустить» или дождаться вечерних вопросов.",

	"messages.welcome": "Это бот «Вопросы для хорошей жизни».\n\n" +
		"Он поможет поддерживать ежедневную практику благодарностей и замечания вдохновляющих мелочей.\n\n" +
		"Сначала выберите ваш регион, чтобы вопросы приходили по местному времени:",
	"messages.invalid_region": "Пожалуйста, выберите регион кнопкой 🌍",
	"messages.choose_time": "Выберите время отправки ежедневного сообщения с вопросами " +
		"(ответы на эти вопросы вы сможете отправлять прямо в этот чат). " +
		"Можно также написать своё время в формате ЧЧ:ММ:",
	"messages.change_time":             "Выберите новое время:",
	"messages.invalid_time":            "Пожалуйста, выберите время кнопкой ⏰ или напишите его в формате ЧЧ:ММ",
	"messages.time_saved":              "Готово 🌿 Я буду писать каждый день в %s (%s).",
	"messages.back":                    "Хорошо. Что делаем дальше?",
	"messages.stopped":                 "Остановлено ✅\nВы можете снова запустить бота в любой момент.",
	"messages.skipped":                 "Хорошо, сегодня вопросов не будет. До завтра 🌙",
	"messages.not_configured":          "Сначала запустите бота кнопкой ▶️ Запустить.",
	"messages.deferred":                "Пришло время сегодняшних вопросов. Они начнутся, как только вы закончите отвечать на текущие.",
	"messages.chained":                 "Спасибо! А теперь вопросы за сегодня.",
	"messages.completed":               "Спасибо за ответы. До завтра!",
	"messages.change_time_mid_session": "Сначала ответьте на текущие вопросы, после этого можно будет сменить время.",
	"messages.nudge":                   "Давно не виделись 🌿 Вопросы для хорошей жизни ждут вас. Нажмите ▶️ Запустить или просто дождитесь вечернего сообщения.",
	"messages.help": "Каждый день в выбранное время я задаю четыре вопроса о хорошем за день. " +
		"Отвечайте прямо в этот чат, по одному сообщению на вопрос.\n\n" +
		"/start: запустить и выбрать регион и время\n" +
		"/change_time: сменить время\n" +
		"/skip: пропустить сегодняшние вопросы\n" +
		"/stop: остановить",
	"messages.general_error": "Что-то пошло не так. Попробуйте ещё раз чуть позже.",
	"messages.private_only":  "Я работаю только в личных сообщениях.",

	"buttons.launch":      "▶️ Запустить",
	"buttons.change_time": "⏰ Сменить время",
	"buttons.stop":        "⛔ Остановить",
	"buttons.skip":        "⏭ Пропустить сегодня",
	"buttons.back":        "↩️ Назад",
}
