// Package species stores plant species records in a single CSV file.
//
// The file starts with a header row followed by one row per species:
//
//	scientificName,commonName,category,cycleDays,requiredHumidity,requiredLight,optimalTemperature,salePrice
//	"Sedum_morganianum","Cola de burro","Suculenta",90,50.0,6.0,22.0,25000.0
//
// String fields are always quoted (with quotes doubled inside), numbers never are.
// The scientific name is the key, compared ignoring case.
//
// # Basic Usage
//
//	s := &species.Store{
//	    DataDir: "localDB",
//	}
//	err := species.OpenStore(s)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = s.Insert(&species.Species{ScientificName: "Ficus_lyrata", SalePrice: 45000})
//	sp, err := s.Find("ficus_LYRATA")
//
// # Reads and writes
//
// Every operation reads the whole file. Insert appends a row. Update and
// Delete write all rows to a temporary file and replace the original with it
// (see package atomicfile), so a reader never sees a half-written file.
//
// # Numbers that don't parse
//
// By default (NumericLenient) a number that doesn't parse is read as 0,
// which is how the files have always been read. Set OnCoerce to find out
// when that happens or use NumericStrict to get ErrInvalidNumber instead.
//
// # Thread Safety
//
// There is no locking. The store is meant for one process with one writer.
package species
