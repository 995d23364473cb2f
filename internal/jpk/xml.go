package jpk

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fakturownik/fakturownik/internal/model"
)

const (
	namespace    = "http://crd.gov.pl/wzor/2021/12/27/11148/"
	namespaceEtd = "http://crd.gov.pl/xml/schematy/dziedzinowe/mf/2021/06/08/eD/DefinicjeTypy/"

	// SystemName is written to Naglowek/NazwaSystemu.
	SystemName = "fakturownik"

	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05Z"

	noTaxID = "BRAK"
)

var (
	taxIDPattern     = regexp.MustCompile(`^\d{10}$`)
	taxOfficePattern = regexp.MustCompile(`^\d{4}$`)
)

type xmlJPK struct {
	XMLName    xml.Name      `xml:"JPK"`
	Xmlns      string        `xml:"xmlns,attr"`
	XmlnsEtd   string        `xml:"xmlns:etd,attr"`
	Naglowek   xmlNaglowek   `xml:"Naglowek"`
	Podmiot1   xmlPodmiot    `xml:"Podmiot1"`
	Deklaracja xmlDeklaracja `xml:"Deklaracja"`
	Ewidencja  xmlEwidencja  `xml:"Ewidencja"`
}

type xmlCode struct {
	KodSystemowy string `xml:"kodSystemowy,attr"`
	WersjaSchemy string `xml:"wersjaSchemy,attr"`
	Value        string `xml:",chardata"`
}

type xmlCel struct {
	Poz   string `xml:"poz,attr"`
	Value int    `xml:",chardata"`
}

type xmlNaglowek struct {
	KodFormularza     xmlCode `xml:"KodFormularza"`
	WariantFormularza int     `xml:"WariantFormularza"`
	DataWytworzenia   string  `xml:"DataWytworzeniaJPK"`
	NazwaSystemu      string  `xml:"NazwaSystemu"`
	CelZlozenia       xmlCel  `xml:"CelZlozenia"`
	KodUrzedu         string  `xml:"KodUrzedu"`
	Rok               int     `xml:"Rok"`
	Miesiac           int     `xml:"Miesiac"`
}

type xmlPodmiot struct {
	Rola             string               `xml:"rola,attr"`
	OsobaFizyczna    *xmlOsobaFizyczna    `xml:"OsobaFizyczna,omitempty"`
	OsobaNiefizyczna *xmlOsobaNiefizyczna `xml:"OsobaNiefizyczna,omitempty"`
}

type xmlOsobaFizyczna struct {
	NIP           string `xml:"etd:NIP"`
	ImiePierwsze  string `xml:"etd:ImiePierwsze"`
	Nazwisko      string `xml:"etd:Nazwisko"`
	DataUrodzenia string `xml:"etd:DataUrodzenia"`
	Email         string `xml:"Email"`
}

type xmlOsobaNiefizyczna struct {
	NIP        string `xml:"NIP"`
	PelnaNazwa string `xml:"PelnaNazwa"`
	Email      string `xml:"Email"`
}

type xmlKodDekl struct {
	KodSystemowy       string `xml:"kodSystemowy,attr"`
	KodPodatku         string `xml:"kodPodatku,attr"`
	RodzajZobowiazania string `xml:"rodzajZobowiazania,attr"`
	WersjaSchemy       string `xml:"wersjaSchemy,attr"`
	Value              string `xml:",chardata"`
}

type xmlDeklaracja struct {
	Naglowek struct {
		KodFormularzaDekl     xmlKodDekl `xml:"KodFormularzaDekl"`
		WariantFormularzaDekl int        `xml:"WariantFormularzaDekl"`
	} `xml:"Naglowek"`
	Pozycje   xmlPozycje `xml:"PozycjeSzczegolowe"`
	Pouczenia int        `xml:"Pouczenia"`
}

// Every position is emitted, zero or not.
type xmlPozycje struct {
	P10 string `xml:"P_10"`
	P13 string `xml:"P_13_1"`
	P15 string `xml:"P_15"`
	P16 string `xml:"P_16"`
	P17 string `xml:"P_17"`
	P18 string `xml:"P_18"`
	P19 string `xml:"P_19"`
	P20 string `xml:"P_20"`
	P37 string `xml:"P_37"`
	P38 string `xml:"P_38"`
	P42 string `xml:"P_42"`
	P43 string `xml:"P_43"`
	P48 string `xml:"P_48"`
	P51 string `xml:"P_51"`
	P53 string `xml:"P_53"`
}

type xmlEwidencja struct {
	Sprzedaz     []xmlSprzedazWiersz `xml:"SprzedazWiersz"`
	SprzedazCtrl xmlSprzedazCtrl     `xml:"SprzedazCtrl"`
	Zakup        []xmlZakupWiersz    `xml:"ZakupWiersz"`
	ZakupCtrl    xmlZakupCtrl        `xml:"ZakupCtrl"`
}

type xmlSprzedazWiersz struct {
	Lp               int    `xml:"LpSprzedazy"`
	KodKraju         string `xml:"KodKrajuNadaniaTIN,omitempty"`
	NrKontrahenta    string `xml:"NrKontrahenta"`
	NazwaKontrahenta string `xml:"NazwaKontrahenta"`
	Dowod            string `xml:"DowodSprzedazy"`
	DataWystawienia  string `xml:"DataWystawienia"`
	DataSprzedazy    string `xml:"DataSprzedazy,omitempty"`
	K10              string `xml:"K_10,omitempty"`
	K13              string `xml:"K_13,omitempty"`
	K15              string `xml:"K_15,omitempty"`
	K16              string `xml:"K_16,omitempty"`
	K17              string `xml:"K_17,omitempty"`
	K18              string `xml:"K_18,omitempty"`
	K19              string `xml:"K_19,omitempty"`
	K20              string `xml:"K_20,omitempty"`
}

type xmlSprzedazCtrl struct {
	Liczba  int    `xml:"LiczbaWierszySprzedazy"`
	Podatek string `xml:"PodatekNalezny"`
}

type xmlZakupWiersz struct {
	Lp            int    `xml:"LpZakupu"`
	KodKraju      string `xml:"KodKrajuNadaniaTIN,omitempty"`
	NrDostawcy    string `xml:"NrDostawcy"`
	NazwaDostawcy string `xml:"NazwaDostawcy"`
	Dowod         string `xml:"DowodZakupu"`
	DataZakupu    string `xml:"DataZakupu"`
	DataWplywu    string `xml:"DataWplywu,omitempty"`
	K42           string `xml:"K_42"`
	K43           string `xml:"K_43"`
}

type xmlZakupCtrl struct {
	Liczba  int    `xml:"LiczbaWierszyZakupow"`
	Podatek string `xml:"PodatekNaliczony"`
}

// Serialize renders d as JPK_V7M(2) XML. Missing mandatory data fails with a
// GenerationError wrapping ErrIncompleteDeclaration; nothing partial is
// returned.
func Serialize(d *Declaration) ([]byte, error) {
	if d == nil {
		return nil, &model.GenerationError{Err: model.ErrIncompleteDeclaration, Field: "declaration"}
	}
	if err := Validate(d); err != nil {
		return nil, err
	}

	doc := xmlJPK{
		Xmlns:    namespace,
		XmlnsEtd: namespaceEtd,
		Naglowek: xmlNaglowek{
			KodFormularza:     xmlCode{KodSystemowy: "JPK_V7M (2)", WersjaSchemy: "1-0E", Value: "JPK_VAT"},
			WariantFormularza: 2,
			DataWytworzenia:   d.Header.GeneratedAt.UTC().Format(dateTimeLayout),
			NazwaSystemu:      SystemName,
			CelZlozenia:       xmlCel{Poz: "P_7", Value: 1},
			KodUrzedu:         d.Header.Entity.TaxOfficeCode,
			Rok:               d.Header.Year,
			Miesiac:           int(d.Header.Month),
		},
		Podmiot1:   podmiotOf(d.Header.Entity),
		Deklaracja: deklaracjaOf(d),
		Ewidencja:  ewidencjaOf(d),
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal JPK_V7M: %w", err)
	}
	out = append([]byte(xml.Header), out...)
	return append(out, '\n'), nil
}

// Validate checks that every mandatory field of d can be populated.
func Validate(d *Declaration) error {
	e := d.Header.Entity
	missing := func(field string) error {
		return &model.GenerationError{Err: model.ErrIncompleteDeclaration, Period: d.Header.PeriodKey, Field: field}
	}

	if !taxIDPattern.MatchString(e.TaxID) {
		return missing("tax ID")
	}
	if e.Individual {
		if e.FirstName == "" {
			return missing("first name")
		}
		if e.LastName == "" {
			return missing("last name")
		}
		if e.BirthDate.IsZero() {
			return missing("birth date")
		}
	} else if e.Name == "" {
		return missing("business name")
	}
	if e.Email == "" {
		return missing("e-mail")
	}
	if !taxOfficePattern.MatchString(e.TaxOfficeCode) {
		return missing("tax office code")
	}
	if d.Header.Year == 0 || d.Header.Month == 0 {
		return missing("period")
	}

	for _, r := range append(append([]Record{}, d.Sales...), d.Purchases...) {
		if strings.TrimSpace(r.Number) == "" {
			return missing("document number of record " + strconv.Itoa(r.Ordinal))
		}
		if strings.TrimSpace(r.Counterparty.Name) == "" {
			return missing("counterparty name of " + r.Number)
		}
	}
	return nil
}

func podmiotOf(e Entity) xmlPodmiot {
	p := xmlPodmiot{Rola: "Podatnik"}
	if e.Individual {
		p.OsobaFizyczna = &xmlOsobaFizyczna{
			NIP:           e.TaxID,
			ImiePierwsze:  e.FirstName,
			Nazwisko:      e.LastName,
			DataUrodzenia: e.BirthDate.Format(dateLayout),
			Email:         e.Email,
		}
		return p
	}
	p.OsobaNiefizyczna = &xmlOsobaNiefizyczna{NIP: e.TaxID, PelnaNazwa: e.Name, Email: e.Email}
	return p
}

func deklaracjaOf(d *Declaration) xmlDeklaracja {
	var out xmlDeklaracja
	out.Naglowek.KodFormularzaDekl = xmlKodDekl{
		KodSystemowy:       "VAT-7 (22)",
		KodPodatku:         "VAT",
		RodzajZobowiazania: "Z",
		WersjaSchemy:       "1-0E",
		Value:              "VAT-7",
	}
	out.Naglowek.WariantFormularzaDekl = 22
	out.Pouczenia = 1

	s := d.Summary
	out.Pozycje = xmlPozycje{
		P10: amount(d.SalesSubtotal(model.VatExempt).Net),
		P13: amount(d.SalesSubtotal(model.Vat0).Net),
		P15: amount(d.SalesSubtotal(model.Vat5).Net),
		P16: amount(d.SalesSubtotal(model.Vat5).Vat),
		P17: amount(d.SalesSubtotal(model.Vat8).Net),
		P18: amount(d.SalesSubtotal(model.Vat8).Vat),
		P19: amount(d.SalesSubtotal(model.Vat23).Net),
		P20: amount(d.SalesSubtotal(model.Vat23).Vat),
		P37: amount(s.SalesNet),
		P38: amount(s.SalesVat),
		P42: amount(s.PurchaseNet),
		P43: amount(s.PurchaseVat),
		P48: amount(s.PurchaseVat),
		P51: amount(s.VatDue),
		P53: amount(s.VatSurplus),
	}
	return out
}

func ewidencjaOf(d *Declaration) xmlEwidencja {
	var out xmlEwidencja
	for _, r := range d.Sales {
		w := xmlSprzedazWiersz{
			Lp:               r.Ordinal,
			KodKraju:         countryOf(r.Counterparty),
			NrKontrahenta:    counterpartyID(r.Counterparty),
			NazwaKontrahenta: r.Counterparty.Name,
			Dowod:            r.Number,
			DataWystawienia:  r.IssueDate.Format(dateLayout),
		}
		if !r.SaleDate.Equal(r.IssueDate) {
			w.DataSprzedazy = r.SaleDate.Format(dateLayout)
		}
		for _, b := range r.Brackets {
			switch b.Rate {
			case model.VatExempt:
				w.K10 = amount(b.Net)
			case model.Vat0:
				w.K13 = amount(b.Net)
			case model.Vat5:
				w.K15, w.K16 = amount(b.Net), amount(b.Vat)
			case model.Vat8:
				w.K17, w.K18 = amount(b.Net), amount(b.Vat)
			case model.Vat23:
				w.K19, w.K20 = amount(b.Net), amount(b.Vat)
			}
		}
		out.Sprzedaz = append(out.Sprzedaz, w)
	}
	out.SprzedazCtrl = xmlSprzedazCtrl{Liczba: len(d.Sales), Podatek: amount(d.Summary.SalesVat)}

	for _, r := range d.Purchases {
		deductible := r.Deductible()
		out.Zakup = append(out.Zakup, xmlZakupWiersz{
			Lp:            r.Ordinal,
			KodKraju:      countryOf(r.Counterparty),
			NrDostawcy:    counterpartyID(r.Counterparty),
			NazwaDostawcy: r.Counterparty.Name,
			Dowod:         r.Number,
			DataZakupu:    r.IssueDate.Format(dateLayout),
			K42:           amount(deductible.Net),
			K43:           amount(deductible.Vat),
		})
	}
	out.ZakupCtrl = xmlZakupCtrl{Liczba: len(d.Purchases), Podatek: amount(d.Summary.PurchaseVat)}
	return out
}

func counterpartyID(p model.Party) string {
	if id := strings.TrimSpace(p.TaxID); id != "" {
		return id
	}
	return noTaxID
}

func countryOf(p model.Party) string {
	return strings.ToUpper(strings.TrimSpace(p.CountryCode))
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
