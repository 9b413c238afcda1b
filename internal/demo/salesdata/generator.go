// Package salesdata generates a synthetic sales_data table with the same
// columns as the classic sample sales dataset, for local demos and tests.
package salesdata

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"
)

var productLines = []string{"Classic Cars", "Motorcycles", "Planes", "Ships", "Trains", "Trucks and Buses", "Vintage Cars"}

type market struct {
	country   string
	territory string
	cities    []string
	states    []string
}

var markets = []market{
	{country: "USA", territory: "NA", cities: []string{"NYC", "San Francisco", "Boston", "Philadelphia", "Los Angeles"}, states: []string{"NY", "CA", "MA", "PA", "CA"}},
	{country: "Canada", territory: "NA", cities: []string{"Vancouver", "Montreal", "Tsawassen"}, states: []string{"BC", "Quebec", "BC"}},
	{country: "France", territory: "EMEA", cities: []string{"Paris", "Nantes", "Lyon", "Marseille"}},
	{country: "Spain", territory: "EMEA", cities: []string{"Madrid", "Barcelona", "Sevilla"}},
	{country: "UK", territory: "EMEA", cities: []string{"London", "Manchester", "Liverpool"}},
	{country: "Germany", territory: "EMEA", cities: []string{"Frankfurt", "Munich", "Cunewalde"}},
	{country: "Norway", territory: "EMEA", cities: []string{"Oslo", "Stavern", "Bergen"}},
	{country: "Australia", territory: "APAC", cities: []string{"Melbourne", "Sydney", "Glen Waverly"}, states: []string{"Victoria", "NSW", "Victoria"}},
	{country: "Japan", territory: "Japan", cities: []string{"Tokyo", "Osaka", "Kobe"}, states: []string{"Tokyo", "Osaka", "Kobe"}},
}

var (
	firstNames   = []string{"Jean", "Peter", "Janine", "Jonas", "Susan", "Roland", "Julie", "Mory", "Valarie", "Leslie", "Diego", "Martine", "Paolo", "Elizabeth", "Yoshi"}
	lastNames    = []string{"King", "Ferguson", "Labrune", "Bergulfsen", "Nelson", "Keitel", "Murphy", "Brown", "Franco", "Taylor", "Freyre", "Rance", "Accorti", "Lincoln", "Tamuri"}
	companyWords = []string{"Land of Toys", "Reims Collectables", "Lyon Souveniers", "Toys4GrownUps.com", "Corporate Gift Ideas", "Technics Stores", "Daedalus Designs", "Herkku Gifts", "Mini Gifts", "Australian Collectors", "Vitachrome", "Euro Shopping", "Diecast Classics", "Auto Canal", "Scandinavian Gift"}
	streets      = []string{"Kingdom Street", "rue des Bouchers", "Fauntleroy Circus", "Hauptstr.", "Strong St.", "Erling Skakkes gate", "Ashley Road", "Drammensveien", "Monitor Way", "Dojima Avanza"}
	statuses     = []string{"Shipped", "Cancelled", "On Hold", "Disputed", "In Process", "Resolved"}
)

type product struct {
	code  string
	line  string
	msrp  int
	price float64
}

type customer struct {
	name      string
	phone     string
	address1  string
	address2  string
	city      string
	state     string
	postal    string
	country   string
	territory string
	lastName  string
	firstName string
}

// Generator emits rows in SalesSchema column order. Output is deterministic
// for a given seed.
type Generator struct {
	rnd       *rand.Rand
	startYear int
	years     int
	products  []product
	customers []customer

	orderNumber int
	linesLeft   int
	lineNumber  int
	orderDate   time.Time
	orderCust   customer
	orderStatus string
}

func NewGenerator(seed int64, startYear, years, customers int) *Generator {
	rnd := rand.New(rand.NewSource(seed))
	g := &Generator{
		rnd:         rnd,
		startYear:   startYear,
		years:       years,
		orderNumber: 10099,
	}
	g.products = g.buildProducts(110)
	g.customers = g.buildCustomers(customers)
	return g
}

func (g *Generator) buildProducts(n int) []product {
	products := make([]product, 0, n)
	for i := 0; i < n; i++ {
		msrp := 33 + g.rnd.Intn(182)
		products = append(products, product{
			code:  fmt.Sprintf("S%d_%04d", 10+g.rnd.Intn(62), 1000+i*37%9000),
			line:  pickOne(g.rnd, productLines),
			msrp:  msrp,
			price: float64(msrp),
		})
	}
	return products
}

func (g *Generator) buildCustomers(n int) []customer {
	out := make([]customer, 0, n)
	for i := 0; i < n; i++ {
		m := markets[g.rnd.Intn(len(markets))]
		cityIndex := g.rnd.Intn(len(m.cities))
		state := ""
		if len(m.states) > 0 {
			state = m.states[cityIndex]
		}
		address2 := ""
		if g.rnd.Intn(10) == 0 {
			address2 = fmt.Sprintf("Level %d", 1+g.rnd.Intn(20))
		}
		out = append(out, customer{
			name:      fmt.Sprintf("%s %s", pickOne(g.rnd, companyWords), string(rune('A'+i%26))),
			phone:     fmt.Sprintf("%03d.%03d.%04d", g.rnd.Intn(1000), g.rnd.Intn(1000), g.rnd.Intn(10000)),
			address1:  fmt.Sprintf("%d %s", 1+g.rnd.Intn(999), pickOne(g.rnd, streets)),
			address2:  address2,
			city:      m.cities[cityIndex],
			state:     state,
			postal:    fmt.Sprintf("%05d", g.rnd.Intn(100000)),
			country:   m.country,
			territory: m.territory,
			lastName:  pickOne(g.rnd, lastNames),
			firstName: pickOne(g.rnd, firstNames),
		})
	}
	return out
}

func (g *Generator) startOrder() {
	g.orderNumber++
	g.linesLeft = 1 + g.rnd.Intn(12)
	g.lineNumber = 0
	g.orderCust = g.customers[g.rnd.Intn(len(g.customers))]
	g.orderDate = time.Date(g.startYear+g.rnd.Intn(g.years), time.Month(1+g.rnd.Intn(12)), 1+g.rnd.Intn(28), 0, 0, 0, 0, time.UTC)

	p := g.rnd.Intn(100)
	switch {
	case p < 90:
		g.orderStatus = statuses[0]
	default:
		g.orderStatus = statuses[1+g.rnd.Intn(len(statuses)-1)]
	}
}

// NextRow returns the next order line as CSV fields.
func (g *Generator) NextRow() []string {
	if g.linesLeft == 0 {
		g.startOrder()
	}
	g.linesLeft--
	g.lineNumber++

	prod := g.products[g.rnd.Intn(len(g.products))]
	quantity := 20 + g.rnd.Intn(47)
	price := round2(prod.price * (0.75 + g.rnd.Float64()*0.5))
	if price > 100 {
		price = 100
	}
	sales := round2(float64(quantity) * price)
	c := g.orderCust

	return []string{
		strconv.Itoa(g.orderNumber),
		strconv.Itoa(quantity),
		strconv.FormatFloat(price, 'f', 2, 64),
		strconv.Itoa(g.lineNumber),
		strconv.FormatFloat(sales, 'f', 2, 64),
		g.orderDate.Format("2006-01-02 15:04:05"),
		g.orderStatus,
		strconv.Itoa((int(g.orderDate.Month())-1)/3 + 1),
		strconv.Itoa(int(g.orderDate.Month())),
		strconv.Itoa(g.orderDate.Year()),
		prod.line,
		strconv.Itoa(prod.msrp),
		prod.code,
		c.name,
		c.phone,
		c.address1,
		c.address2,
		c.city,
		c.state,
		c.postal,
		c.country,
		c.territory,
		c.lastName,
		c.firstName,
		dealSize(sales),
	}
}

func dealSize(sales float64) string {
	switch {
	case sales < 3000:
		return "Small"
	case sales < 7000:
		return "Medium"
	default:
		return "Large"
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
