package color

// Named hues in 15 degree increments.
var (
	HueRed        = Hue(0)
	HueVermilion  = Hue(15)
	HueOrange     = Hue(30)
	HueAmber      = Hue(45)
	HueYellow     = Hue(60)
	HueLime       = Hue(75)
	HueChartreuse = Hue(90)
	HueDdahal     = Hue(105)
	HueGreen      = Hue(120)
	HueErin       = Hue(135)
	HueSpring     = Hue(150)
	HueGashyanta  = Hue(165)
	HueCyan       = Hue(180)
	HueCapri      = Hue(195)
	HueAzure      = Hue(210)
	HueCerulean   = Hue(225)
	HueBlue       = Hue(240)
	HueVolta      = Hue(255)
	HueViolet     = Hue(270)
	HuePurple     = Hue(285)
	HueMagenta    = Hue(300)
	HueCerise     = Hue(315)
	HueRose       = Hue(330)
	HueCrimson    = Hue(345)
)

func full(h uint16) HSV { return HSV{H: h, S: 0xff, V: 0xff} }

var (
	White      = HSV{H: HueRed, S: 0, V: 0xff}
	Silver     = HSV{H: HueRed, S: 0, V: 0xc0}
	Gray       = HSV{H: HueRed, S: 0, V: 0x80}
	Black      = HSV{H: HueRed, S: 0, V: 0}
	Red        = full(HueRed)
	Maroon     = HSV{H: HueRed, S: 0xff, V: 0x80}
	Yellow     = full(HueYellow)
	Olive      = HSV{H: HueYellow, S: 0xff, V: 0x80}
	BrightLime = full(HueGreen)
	Green      = HSV{H: HueGreen, S: 0xff, V: 0x80}
	Aqua       = full(HueCyan)
	Teal       = HSV{H: HueCyan, S: 0xff, V: 0x80}
	Blue       = full(HueBlue)
	Navy       = HSV{H: HueBlue, S: 0xff, V: 0x80}
	Fuchsia    = full(HueMagenta)
	Purple     = HSV{H: HueMagenta, S: 0xff, V: 0x80}

	Vermilion  = full(HueVermilion)
	Amber      = full(HueAmber)
	Lime       = full(HueLime)
	Orange     = full(HueOrange)
	Chartreuse = full(HueChartreuse)
	Ddahal     = full(HueDdahal)
	Erin       = full(HueErin)
	Spring     = full(HueSpring)
	Gashyanta  = full(HueGashyanta)
	Cyan       = full(HueCyan)
	Capri      = full(HueCapri)
	Azure      = full(HueAzure)
	Cerulean   = full(HueCerulean)
	Volta      = full(HueVolta)
	Violet     = full(HueViolet)
	Magenta    = full(HueMagenta)
	Cerise     = full(HueCerise)
	Rose       = full(HueRose)
	Crimson    = full(HueCrimson)
)
