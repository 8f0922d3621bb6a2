package dto

type Metadata struct {
	DataType                string
	RouteID                 string
	AmbientTemperatureRange string
	Date                    string
	Comment                 string
}
