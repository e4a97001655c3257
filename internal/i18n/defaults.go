package i18n

// builtin holds the messages shipped with the macro. The root bundle ("") is English.
var builtin = map[string]map[string]string{
	"": {
		"rendering.macro.docaccordion.name":             "Document accordion",
		"rendering.macro.docaccordion.description":      "Display multiple documents as an accordion",
		"rendering.macro.docaccordion.wrong_parameters": "Unable to find the documents to display. Set an existing application class or a location that holds an application.",
		"rendering.macro.docaccordion.footer.modified":  "Modified",
		"rendering.macro.docaccordion.footer.by":        "by",
		"rendering.macro.docaccordion.footer.on":        "on",
		"date.month.1":                                  "January",
		"date.month.2":                                  "February",
		"date.month.3":                                  "March",
		"date.month.4":                                  "April",
		"date.month.5":                                  "May",
		"date.month.6":                                  "June",
		"date.month.7":                                  "July",
		"date.month.8":                                  "August",
		"date.month.9":                                  "September",
		"date.month.10":                                 "October",
		"date.month.11":                                 "November",
		"date.month.12":                                 "December",
	},
	"fr": {
		"rendering.macro.docaccordion.wrong_parameters": "Impossible de trouver les documents à afficher. Indiquez une classe d'application existante ou un emplacement contenant une application.",
		"rendering.macro.docaccordion.footer.modified":  "Modifié",
		"rendering.macro.docaccordion.footer.by":        "par",
		"rendering.macro.docaccordion.footer.on":        "le",
		"date.month.1":                                  "janvier",
		"date.month.2":                                  "février",
		"date.month.3":                                  "mars",
		"date.month.4":                                  "avril",
		"date.month.5":                                  "mai",
		"date.month.6":                                  "juin",
		"date.month.7":                                  "juillet",
		"date.month.8":                                  "août",
		"date.month.9":                                  "septembre",
		"date.month.10":                                 "octobre",
		"date.month.11":                                 "novembre",
		"date.month.12":                                 "décembre",
	},
}
